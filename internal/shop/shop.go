package shop

import (
	"strings"
	"time"

	shopDatamodel "github.com/frahmantamala/genops/internal/core/datamodel/shop"
	"github.com/frahmantamala/genops/internal/user"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Shop struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	Address         string    `json:"address,omitempty"`
	City            string    `json:"city,omitempty"`
	District        string    `json:"district,omitempty"`
	ContactNumber   string    `json:"contactNumber,omitempty"`
	OperatorID      string    `json:"operatorId,omitempty"`
	OperatorName    string    `json:"operatorName,omitempty"`
	OperatorEmail   string    `json:"operatorEmail,omitempty"`
	OperatorContact string    `json:"operatorContact,omitempty"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AssignOperator copies the operator's display fields onto the shop. A nil operator
// clears them.
func (s *Shop) AssignOperator(op *user.User) {
	if op == nil {
		s.OperatorID = ""
		s.OperatorName = ""
		s.OperatorEmail = ""
		s.OperatorContact = ""
		return
	}
	s.OperatorID = op.UID
	s.OperatorName = op.DisplayName()
	s.OperatorEmail = op.Email
	s.OperatorContact = op.ContactNumber
}

type CreateShopDTO struct {
	Name          string `json:"name"`
	Code          string `json:"code"`
	Address       string `json:"address"`
	City          string `json:"city"`
	District      string `json:"district"`
	ContactNumber string `json:"contactNumber"`
	OperatorID    string `json:"operatorId"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

func (dto CreateShopDTO) toShop() *Shop {
	status := Status(strings.TrimSpace(dto.Status))
	if status == "" {
		status = StatusActive
	}
	return &Shop{
		Name:          strings.TrimSpace(dto.Name),
		Code:          strings.TrimSpace(dto.Code),
		Address:       dto.Address,
		City:          dto.City,
		District:      dto.District,
		ContactNumber: dto.ContactNumber,
		OperatorID:    strings.TrimSpace(dto.OperatorID),
		Status:        status,
		Notes:         dto.Notes,
	}
}

// UpdateShopDTO carries a partial update; nil fields are left unchanged.
type UpdateShopDTO struct {
	Name          *string `json:"name"`
	Code          *string `json:"code"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	District      *string `json:"district"`
	ContactNumber *string `json:"contactNumber"`
	OperatorID    *string `json:"operatorId"`
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
}

// apply writes the set fields onto s and returns the document fields they touch.
func (dto UpdateShopDTO) apply(s *Shop) map[string]any {
	fields := map[string]any{}
	set := func(key string, src *string, dst *string) {
		if src == nil {
			return
		}
		*dst = *src
		fields[key] = *src
	}

	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		dto.Name = &trimmed
	}
	if dto.Code != nil {
		trimmed := strings.TrimSpace(*dto.Code)
		dto.Code = &trimmed
	}

	set("name", dto.Name, &s.Name)
	set("code", dto.Code, &s.Code)
	set("address", dto.Address, &s.Address)
	set("city", dto.City, &s.City)
	set("district", dto.District, &s.District)
	set("contactNumber", dto.ContactNumber, &s.ContactNumber)
	set("notes", dto.Notes, &s.Notes)
	if dto.Status != nil {
		s.Status = Status(strings.TrimSpace(*dto.Status))
		fields["status"] = string(s.Status)
	}
	return fields
}

func operatorFields(s *Shop) map[string]any {
	if s.OperatorID == "" {
		return map[string]any{
			"operatorId":      nil,
			"operatorName":    nil,
			"operatorEmail":   nil,
			"operatorContact": nil,
		}
	}
	return map[string]any{
		"operatorId":      s.OperatorID,
		"operatorName":    s.OperatorName,
		"operatorEmail":   s.OperatorEmail,
		"operatorContact": s.OperatorContact,
	}
}

func ToDataModel(s *Shop) *shopDatamodel.Shop {
	return &shopDatamodel.Shop{
		Name:            s.Name,
		Code:            s.Code,
		Address:         s.Address,
		City:            s.City,
		District:        s.District,
		ContactNumber:   s.ContactNumber,
		OperatorID:      s.OperatorID,
		OperatorName:    s.OperatorName,
		OperatorEmail:   s.OperatorEmail,
		OperatorContact: s.OperatorContact,
		Status:          string(s.Status),
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt.UnixMilli(),
		UpdatedAt:       s.UpdatedAt.UnixMilli(),
	}
}

func FromDataModel(id string, dm *shopDatamodel.Shop) *Shop {
	return &Shop{
		ID:              id,
		Name:            dm.Name,
		Code:            dm.Code,
		Address:         dm.Address,
		City:            dm.City,
		District:        dm.District,
		ContactNumber:   dm.ContactNumber,
		OperatorID:      dm.OperatorID,
		OperatorName:    dm.OperatorName,
		OperatorEmail:   dm.OperatorEmail,
		OperatorContact: dm.OperatorContact,
		Status:          Status(dm.Status),
		Notes:           dm.Notes,
		CreatedAt:       time.UnixMilli(dm.CreatedAt).UTC(),
		UpdatedAt:       time.UnixMilli(dm.UpdatedAt).UTC(),
	}
}
