package models

import (
	"time"
)

const (
	RoleAgent         = "agent"
	RoleOfficeStaff   = "office_staff"
	RoleDistrictAgent = "district_agent"
	RoleAdmin         = "admin"
)

const (
	LotteryTypeA = "category_a"
	LotteryTypeB = "category_b"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:agent"   json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

type Lottery struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"not null"                 json:"name"`
	Type           string    `gorm:"not null"                 json:"type"`
	UnitPrice      int64     `gorm:"not null"                 json:"unit_price"`
	UnitCommission int64     `gorm:"not null"                 json:"unit_commission"`
	DrawDate       time.Time `json:"draw_date"`
	ImageURL       string    `json:"image_url"`
}

// Stock tracks whether a lottery can currently be ordered. One row per lottery.
type Stock struct {
	ID        uint `gorm:"primaryKey"            json:"id"`
	LotteryID uint `gorm:"uniqueIndex;not null"  json:"lottery_id"`
	Available bool `gorm:"default:true"          json:"available"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                   json:"id"`
	AgentID   uint `gorm:"index;not null"               json:"agent_id"`
	LotteryID uint `gorm:"not null"                     json:"lottery_id"`
	Quantity  int  `gorm:"default:1;check:quantity>0"   json:"quantity"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey"      json:"id"`
	AgentID         uint        `gorm:"index;not null"  json:"agent_id"`
	StaffID         *uint       `json:"staff_id,omitempty"`
	Status          string      `gorm:"not null"        json:"status"`
	TotalAmount     int64       `gorm:"not null"        json:"total_amount"`
	TotalCommission int64       `gorm:"not null"        json:"total_commission"`
	CreatedAt       int64       `gorm:"not null"        json:"created_at"`
	UpdatedAt       int64       `gorm:"not null"        json:"updated_at"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Delivery        *Delivery   `gorm:"foreignKey:OrderID" json:"delivery,omitempty"`
}

// OrderItem carries the unit price and commission captured at checkout.
// Recomputation always uses these snapshots, never the live lottery row.
type OrderItem struct {
	ID             uint  `gorm:"primaryKey"                  json:"id"`
	OrderID        uint  `gorm:"index;not null"              json:"order_id"`
	LotteryID      uint  `gorm:"not null"                    json:"lottery_id"`
	Quantity       int   `gorm:"not null;check:quantity>=0"  json:"quantity"`
	UnitPrice      int64 `gorm:"not null"                    json:"unit_price"`
	UnitCommission int64 `gorm:"not null"                    json:"unit_commission"`
}

// Delivery with an empty TransportType means self-pickup.
type Delivery struct {
	ID            uint   `gorm:"primaryKey"           json:"id"`
	OrderID       uint   `gorm:"uniqueIndex;not null" json:"order_id"`
	TransportType string `json:"transport_type"`
	Vehicle       string `json:"vehicle"`
	DispatchAt    int64  `json:"dispatch_at"`
	ArriveAt      int64  `json:"arrive_at"`
	StaffID       uint   `json:"staff_id"`
}
