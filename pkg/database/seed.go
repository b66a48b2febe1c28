package database

import (
	"github.com/elton-creator/crm-system-v2/internal/model"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultOrigins is the origin set provisioned for every new client. These
// rows carry is_default=true and are protected from deletion.
var DefaultOrigins = []model.Origin{
	{Name: "Google Ads", Color: "#4285f4"},
	{Name: "Meta Ads", Color: "#1877f2"},
	{Name: "Indicação", Color: "#10b981"},
	{Name: "Não Rastreado", Color: "#6b7280"},
	{Name: "Outras Origens", Color: "#8b5cf6"},
}

// DefaultStages is the stage pipeline of the default funnel.
var DefaultStages = model.StageList{
	{ID: "novo", Name: "Novo Lead", Color: "#3b82f6"},
	{ID: "contato", Name: "Primeiro Contato", Color: "#8b5cf6"},
	{ID: "qualificado", Name: "Qualificado", Color: "#f59e0b"},
	{ID: "proposta", Name: "Proposta Enviada", Color: "#10b981"},
	{ID: "negociacao", Name: "Em Negociação", Color: "#06b6d4"},
	{ID: "fechado", Name: "Fechado", Color: "#22c55e"},
	{ID: "perdido", Name: "Perdido", Color: "#ef4444"},
}

// Seed provisions the initial admin and client accounts, the client's
// default origins and funnel, and two sample leads. It is idempotent:
// records already present are left untouched.
func Seed(db *gorm.DB, log *zap.Logger) error {
	if _, err := seedUser(db, "admin@crm.com", "admin123", "Administrador", model.RoleAdmin); err != nil {
		return err
	}

	client, err := seedUser(db, "joao@empresa.com", "client123", "João Silva", model.RoleClient)
	if err != nil {
		return err
	}

	if err := ProvisionClient(db, client.ID); err != nil {
		return err
	}

	funnel, err := defaultFunnel(db, client.ID)
	if err != nil {
		return err
	}

	sampleLeads := []model.Lead{
		{
			ClientID: client.ID,
			FunnelID: funnel.ID,
			Name:     "Maria Santos",
			Email:    strPtr("maria@email.com"),
			Phone:    strPtr("(11) 98765-4321"),
			Origin:   "Google Ads",
			Stage:    "novo",
			Tags:     model.StringList{"urgente", "vip"},
		},
		{
			ClientID: client.ID,
			FunnelID: funnel.ID,
			Name:     "Pedro Oliveira",
			Email:    strPtr("pedro@email.com"),
			Phone:    strPtr("(11) 97654-3210"),
			Origin:   "Indicação",
			Stage:    "contato",
			Tags:     model.StringList{"interessado"},
		},
	}

	for i := range sampleLeads {
		lead := &sampleLeads[i]

		var count int64
		if err := db.Model(&model.Lead{}).
			Where("client_id = ? AND name = ?", lead.ClientID, lead.Name).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		// Leads always enter the ledger with an initial from=null entry
		changedBy := client.ID
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(lead).Error; err != nil {
				return err
			}
			return tx.Create(&model.LeadHistory{
				LeadID:    lead.ID,
				ToStage:   lead.Stage,
				ChangedBy: &changedBy,
			}).Error
		})
		if err != nil {
			return err
		}
	}

	log.Info("Database seeding completed",
		zap.String("admin", "admin@crm.com"),
		zap.String("client", "joao@empresa.com"))
	return nil
}

// ProvisionClient creates the default origins and the default funnel for a
// client if they do not exist yet. After it returns, the client satisfies
// the invariant of exactly one default funnel plus the full default origin
// set, which lead creation relies on.
func ProvisionClient(db *gorm.DB, clientID uint) error {
	for _, origin := range DefaultOrigins {
		err := db.Where(model.Origin{ClientID: clientID, Name: origin.Name}).
			Attrs(model.Origin{Color: origin.Color, IsDefault: true}).
			FirstOrCreate(&model.Origin{}).Error
		if err != nil {
			return err
		}
	}

	_, err := defaultFunnel(db, clientID)
	return err
}

func defaultFunnel(db *gorm.DB, clientID uint) (*model.Funnel, error) {
	var funnel model.Funnel
	err := db.Where("client_id = ? AND is_default = ?", clientID, true).
		Attrs(model.Funnel{ClientID: clientID, Name: "Funil Padrão", Stages: DefaultStages, IsDefault: true}).
		FirstOrCreate(&funnel).Error
	if err != nil {
		return nil, err
	}
	return &funnel, nil
}

func seedUser(db *gorm.DB, email, password, name, role string) (*model.User, error) {
	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user = model.User{
		Email:    email,
		Password: string(hashed),
		Name:     name,
		Role:     role,
		Status:   model.StatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func strPtr(s string) *string {
	return &s
}
