package business

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pousada São José", "pousada-sao-jose"},
		{"  Café & Cia.  ", "cafe-cia"},
		{"Restaurante --- Nossa Senhora", "restaurante-nossa-senhora"},
		{"!!!", "negocio"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeSlug(tt.in))
		})
	}
}

func TestSlugFor(t *testing.T) {
	id := uuid.MustParse("3f2b9c1e-0000-4000-8000-000000000000")
	assert.Equal(t, "hotel-basilica-3f2b9c", SlugFor("Hotel Basílica", id))
}

func TestContactEmails(t *testing.T) {
	billing := "Financeiro@Pousada.com"
	r := Registration{Email: "dono@pousada.com", BillingEmail: &billing}
	assert.Equal(t, []string{"dono@pousada.com", "Financeiro@Pousada.com"}, r.ContactEmails())
	assert.Equal(t, "Financeiro@Pousada.com", r.BillingAddress())

	same := "DONO@pousada.com"
	r.BillingEmail = &same
	assert.Equal(t, []string{"dono@pousada.com"}, r.ContactEmails())

	r.BillingEmail = nil
	assert.Equal(t, "dono@pousada.com", r.BillingAddress())
}
