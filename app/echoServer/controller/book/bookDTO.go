package book

type SetStockReq struct {
	StockQuantity *int64 `json:"stock_quantity" validate:"required"`
}
