package customers

type CreateCustomerRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	DocumentType   string  `json:"document_type" validate:"required,oneof=DNI RUC CE PASSPORT"`
	DocumentNumber string  `json:"document_number" validate:"required,max=20"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Address        *string `json:"address,omitempty" validate:"omitempty,max=255"`
}

type UpdateCustomerRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=255"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type ListCustomersRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}
