package client

import (
	"fmt"
	"strings"

	"product-dashboard/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateProductRequest is the body of a create call. It never carries a
// creation time; the remote store or the caller supplies one.
type CreateProductRequest struct {
	Name string            `json:"name" validate:"required,max=255"`
	Data domain.Attributes `json:"data,omitempty"`
}

// UpdateProductRequest is a partial update; nil fields are not sent and stay
// untouched on the remote side
type UpdateProductRequest struct {
	ID   string            `json:"-" validate:"required"`
	Name *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Data domain.Attributes `json:"data,omitempty"`
}

// ProductInput is what the product form collects
type ProductInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Category string  `json:"category" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Stock    int     `json:"stock" validate:"gte=0"`
}

// Attributes builds the attribute bag the form submits, including the
// status matching the entered stock
func (in ProductInput) Attributes() domain.Attributes {
	return domain.Attributes{
		domain.AttrPrice:    domain.Number(in.Price),
		domain.AttrCategory: domain.String(in.Category),
		domain.AttrStock:    domain.Number(float64(in.Stock)),
		domain.AttrStatus:   domain.String(domain.StatusForStock(float64(in.Stock), true).String()),
	}
}

// CreateRequest turns the form input into a create request
func (in ProductInput) CreateRequest() CreateProductRequest {
	return CreateProductRequest{Name: strings.TrimSpace(in.Name), Data: in.Attributes()}
}

// ProductPatch is an edit of an existing product. Nil fields keep their
// current value.
type ProductPatch struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category *string  `json:"category,omitempty" validate:"omitempty,min=1"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock    *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// Validate checks the fields that are set
func (p ProductPatch) Validate() error {
	return validationError(OpUpdate, validate.Struct(p.trimmed()))
}

func (p ProductPatch) trimmed() ProductPatch {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		p.Category = &category
	}
	return p
}

// Apply builds the update of current. The remote store replaces the whole
// record, so every attribute not named by the patch is carried over as is;
// the status is recomputed only when the stock changes.
func (p ProductPatch) Apply(current domain.Product) UpdateProductRequest {
	p = p.trimmed()

	name := current.Name
	if p.Name != nil {
		name = *p.Name
	}

	data := current.Data.Clone()
	if data == nil {
		data = domain.Attributes{}
	}
	if p.Category != nil {
		data[domain.AttrCategory] = domain.String(*p.Category)
	}
	if p.Price != nil {
		data[domain.AttrPrice] = domain.Number(*p.Price)
	}
	if p.Stock != nil {
		stock := float64(*p.Stock)
		data[domain.AttrStock] = domain.Number(stock)
		data[domain.AttrStatus] = domain.String(domain.StatusForStock(stock, true).String())
	}

	return UpdateProductRequest{ID: current.ID, Name: &name, Data: data}
}

// Validate checks the form input before anything is sent
func (in ProductInput) Validate(op Op) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	return validationError(op, validate.Struct(in))
}

func (r CreateProductRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := validationError(OpCreate, validate.Struct(r)); err != nil {
		return err
	}
	return validateAttributes(OpCreate, r.Data)
}

func (r UpdateProductRequest) validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if err := validationError(OpUpdate, validate.Struct(r)); err != nil {
		return err
	}
	return validateAttributes(OpUpdate, r.Data)
}

// validateAttributes rejects negative prices and stock counts
func validateAttributes(op Op, data domain.Attributes) error {
	var fields []FieldError
	for _, key := range []string{domain.AttrPrice, domain.AttrStock} {
		if n, ok := data.Number(key); ok && n < 0 {
			fields = append(fields, FieldError{Field: key, Message: key + " cannot be negative"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return newValidationError(op, fields)
}

func validationError(op Op, err error) error {
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return &Error{Op: op, Kind: KindValidation, Message: err.Error(), Err: err}
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		fields = append(fields, FieldError{Field: field, Message: fieldMessage(field, e)})
	}
	return newValidationError(op, fields)
}

func newValidationError(op Op, fields []FieldError) *Error {
	messages := make([]string, 0, len(fields))
	for _, f := range fields {
		messages = append(messages, f.Message)
	}
	return &Error{
		Op:      op,
		Kind:    KindValidation,
		Message: strings.Join(messages, "; "),
		Fields:  fields,
	}
}

func fieldMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "gte":
		return field + " cannot be negative"
	case "min":
		if e.Param() == "1" {
			return field + " is required"
		}
		return field + " is too short"
	case "max":
		return field + " is too long"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
