package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/connector/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Mapping Tables
// ---------------------------------------------------------------------------

// OrderMappingModel is the persistence model for the OrderMapping domain
// entity. The unique index on LocalOrderID carries the idempotency
// invariant into the database.
type OrderMappingModel struct {
	ID           uint                   `gorm:"primaryKey;autoIncrement"`
	LocalOrderID int64                  `gorm:"not null;uniqueIndex:idx_order_mapping_local_order"`
	DocEntry     int64                  `gorm:"not null;default:0;index"`
	DocNum       string                 `gorm:"type:varchar(50)"`
	Status       integration.SyncStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Attempts     int                    `gorm:"not null;default:0"`
	LastError    string                 `gorm:"type:text"`
	SyncedAt     *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderMappingModel) TableName() string {
	return "order_mappings"
}

// ToDomain converts the persistence model to a domain OrderMapping.
func (m *OrderMappingModel) ToDomain() *integration.OrderMapping {
	return &integration.OrderMapping{
		LocalOrderID: m.LocalOrderID,
		DocEntry:     m.DocEntry,
		DocNum:       m.DocNum,
		Status:       m.Status,
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		SyncedAt:     m.SyncedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderMapping.
func (m *OrderMappingModel) FromDomain(om *integration.OrderMapping) {
	m.LocalOrderID = om.LocalOrderID
	m.DocEntry = om.DocEntry
	m.DocNum = om.DocNum
	m.Status = om.Status
	m.Attempts = om.Attempts
	m.LastError = om.LastError
	m.SyncedAt = om.SyncedAt
}

// ProductMappingModel is the persistence model for the ProductMapping
// domain entity. Both sides of the pairing are uniquely indexed.
type ProductMappingModel struct {
	ID             uint                   `gorm:"primaryKey;autoIncrement"`
	LocalProductID int64                  `gorm:"not null;uniqueIndex:idx_product_mapping_local_product"`
	ItemCode       string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_mapping_item_code"`
	SyncEnabled    bool                   `gorm:"not null;default:true;index"`
	LastSyncedAt   *time.Time             `gorm:"index"`
	LastKnownStock decimal.Decimal        `gorm:"type:numeric(19,6);not null;default:0"`
	Status         integration.SyncStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	LastError      string                 `gorm:"type:text"`
	CreatedAt      time.Time              `gorm:"not null"`
	UpdatedAt      time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping.
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	return &integration.ProductMapping{
		LocalProductID: m.LocalProductID,
		ItemCode:       m.ItemCode,
		SyncEnabled:    m.SyncEnabled,
		LastSyncedAt:   m.LastSyncedAt,
		LastKnownStock: m.LastKnownStock,
		Status:         m.Status,
		LastError:      m.LastError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductMapping.
func (m *ProductMappingModel) FromDomain(pm *integration.ProductMapping) {
	m.LocalProductID = pm.LocalProductID
	m.ItemCode = pm.ItemCode
	m.SyncEnabled = pm.SyncEnabled
	m.LastSyncedAt = pm.LastSyncedAt
	m.LastKnownStock = pm.LastKnownStock
	m.Status = pm.Status
	m.LastError = pm.LastError
}

// CustomerMappingModel is the persistence model for the CustomerMapping
// domain entity. The unique index on LocalCustomerID arbitrates concurrent
// first-time resolutions of the same customer.
type CustomerMappingModel struct {
	ID              uint                   `gorm:"primaryKey;autoIncrement"`
	LocalCustomerID int64                  `gorm:"not null;uniqueIndex:idx_customer_mapping_local_customer"`
	Email           string                 `gorm:"type:varchar(255);not null;index"`
	CardCode        string                 `gorm:"type:varchar(50);not null"`
	Status          integration.SyncStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt       time.Time              `gorm:"not null"`
	UpdatedAt       time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerMappingModel) TableName() string {
	return "customer_mappings"
}

// ToDomain converts the persistence model to a domain CustomerMapping.
func (m *CustomerMappingModel) ToDomain() *integration.CustomerMapping {
	return &integration.CustomerMapping{
		LocalCustomerID: m.LocalCustomerID,
		Email:           m.Email,
		CardCode:        m.CardCode,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain CustomerMapping.
func (m *CustomerMappingModel) FromDomain(cm *integration.CustomerMapping) {
	m.LocalCustomerID = cm.LocalCustomerID
	m.Email = cm.Email
	m.CardCode = cm.CardCode
	m.Status = cm.Status
}

// ---------------------------------------------------------------------------
// Dead Letters
// ---------------------------------------------------------------------------

// DeadLetterModel is the persistence model for parked sync jobs.
type DeadLetterModel struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey"`
	JobType      integration.JobType `gorm:"type:varchar(30);not null;index"`
	JobGroup     string              `gorm:"type:varchar(50);not null;index"`
	PayloadJSON  string              `gorm:"type:jsonb;column:payload"`
	ErrorMessage string              `gorm:"type:text"`
	Attempts     int                 `gorm:"not null"`
	FailedAt     time.Time           `gorm:"not null;index"`
	ResolvedAt   *time.Time          `gorm:"index"`
	Resolution   string              `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (DeadLetterModel) TableName() string {
	return "dead_letters"
}

// ToDomain converts the persistence model to a domain DeadLetterEntry.
func (m *DeadLetterModel) ToDomain() *integration.DeadLetterEntry {
	entry := &integration.DeadLetterEntry{
		ID:           m.ID,
		JobType:      m.JobType,
		Group:        m.JobGroup,
		Payload:      make(map[string]string),
		ErrorMessage: m.ErrorMessage,
		Attempts:     m.Attempts,
		FailedAt:     m.FailedAt,
		ResolvedAt:   m.ResolvedAt,
		Resolution:   integration.DeadLetterResolution(m.Resolution),
	}
	if m.PayloadJSON != "" {
		_ = json.Unmarshal([]byte(m.PayloadJSON), &entry.Payload)
	}
	return entry
}

// FromDomain populates the persistence model from a domain DeadLetterEntry.
func (m *DeadLetterModel) FromDomain(e *integration.DeadLetterEntry) {
	m.ID = e.ID
	m.JobType = e.JobType
	m.JobGroup = e.Group
	m.ErrorMessage = e.ErrorMessage
	m.Attempts = e.Attempts
	m.FailedAt = e.FailedAt
	m.ResolvedAt = e.ResolvedAt
	m.Resolution = string(e.Resolution)
	if payload, err := json.Marshal(e.Payload); err == nil {
		m.PayloadJSON = string(payload)
	} else {
		m.PayloadJSON = "{}"
	}
}

// ---------------------------------------------------------------------------
// Sync Log
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for the append-only sync log.
type SyncLogModel struct {
	ID               uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	SyncType         integration.JobType       `gorm:"type:varchar(30);not null;index"`
	LocalID          string                    `gorm:"type:varchar(50);index"`
	ERPID            string                    `gorm:"type:varchar(50);column:erp_id"`
	Status           integration.SyncStatus    `gorm:"type:varchar(20);not null;index"`
	Direction        integration.SyncDirection `gorm:"type:varchar(10);not null"`
	Message          string                    `gorm:"type:text"`
	RequestSnapshot  string                    `gorm:"type:text"`
	ResponseSnapshot string                    `gorm:"type:text"`
	CreatedAt        time.Time                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLogEntry.
func (m *SyncLogModel) ToDomain() *integration.SyncLogEntry {
	return &integration.SyncLogEntry{
		ID:               m.ID,
		SyncType:         m.SyncType,
		LocalID:          m.LocalID,
		ERPID:            m.ERPID,
		Status:           m.Status,
		Direction:        m.Direction,
		Message:          m.Message,
		RequestSnapshot:  m.RequestSnapshot,
		ResponseSnapshot: m.ResponseSnapshot,
		CreatedAt:        m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLogEntry.
func (m *SyncLogModel) FromDomain(e *integration.SyncLogEntry) {
	m.ID = e.ID
	m.SyncType = e.SyncType
	m.LocalID = e.LocalID
	m.ERPID = e.ERPID
	m.Status = e.Status
	m.Direction = e.Direction
	m.Message = e.Message
	m.RequestSnapshot = e.RequestSnapshot
	m.ResponseSnapshot = e.ResponseSnapshot
	m.CreatedAt = e.CreatedAt
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// SettingModel is a key-value settings row.
type SettingModel struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettingModel) TableName() string {
	return "settings"
}
