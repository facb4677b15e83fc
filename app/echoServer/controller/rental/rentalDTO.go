package rental

type RentReq struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}
