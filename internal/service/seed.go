package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tuition/internal/model"
)

type seedCourse struct {
	id    string
	name  string
	price string
}

var (
	seedSeriado = []seedCourse{
		{"1", "ADMINISTRAÇÃO", "40.74"},
		{"2", "AGRONOMIA", "60.08"},
		{"3", "ARQUITETURA E URBANISMO", "74.42"},
		{"4", "BIOMEDICINA", "69.71"},
		{"5", "CIÊNCIA DA COMPUTAÇÃO", "50.50"},
		{"6", "CIÊNCIAS CONTÁBEIS", "40.76"},
		{"7", "DIREITO", "68.97"},
		{"8", "ENFERMAGEM", "69.63"},
		{"9", "ENGENHARIA CIVIL", "75.40"},
		{"10", "MEDICINA", "340.90"},
	}
	seedAberto = []seedCourse{
		{"1", "COMPLEMENTAÇÃO PSICOLOGIA", "43.49"},
		{"2", "CURSO SUPERIOR DE TECNOLOGIA EM ESTETICA E COSMETICA", "41.88"},
		{"3", "EDUCACAO FISICA - BACHARELADO", "42.38"},
		{"4", "EDUCACAO FISICA - LICENCIATURA", "40.91"},
		{"5", "ENGENHARIA DE MINAS", "83.44"},
		{"6", "ENGENHARIA DE SOFTWARE", "50.50"},
		{"7", "FARMÁCIA", "69.71"},
		{"8", "FISIOTERAPIA", "69.71"},
		{"9", "JOGOS DIGITAIS", "50.50"},
		{"10", "SISTEMAS DE INFORMAÇÃO", "52.17"},
	}
)

// SeedCatalog returns the catalog written on first start.
func SeedCatalog() model.Catalog {
	build := func(src []seedCourse) []model.Course {
		out := make([]model.Course, 0, len(src))
		for _, c := range src {
			out = append(out, model.Course{ID: c.id, Name: c.name, CreditPrice: decimal.RequireFromString(c.price)})
		}
		return out
	}
	return model.Catalog{
		model.RegimeSeriado: build(seedSeriado),
		model.RegimeAberto:  build(seedAberto),
	}
}

// SeedUser is a default account written on first start.
type SeedUser struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// DefaultSeedUsers are the administrator and regular accounts the directory starts with.
var DefaultSeedUsers = []SeedUser{
	{ID: "1", Name: "Administrador", Email: "admin@exemplo.com", Password: "admin123", Role: model.RoleAdmin},
	{ID: "2", Name: "Usuário Comum", Email: "user@exemplo.com", Password: "user123", Role: model.RoleUser},
}

// seedDirectory hashes the default accounts.
func seedDirectory(seeds []SeedUser, now time.Time, cost int) ([]model.User, error) {
	users := make([]model.User, 0, len(seeds))
	for _, s := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password for %s: %w", s.Email, err)
		}
		users = append(users, model.User{
			ID:           s.ID,
			Name:         s.Name,
			Email:        s.Email,
			PasswordHash: string(hash),
			Role:         s.Role,
			Active:       true,
			CreatedAt:    now,
		})
	}
	return users, nil
}
