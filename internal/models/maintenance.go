package models

import "time"

// MaintenanceRequest is the core work item: a tenant-filed repair
// request with SLA deadlines, an optional assignee, and a full history
// trail of every status and assignment change.
type MaintenanceRequest struct {
	ID             uint     `gorm:"primaryKey;autoIncrement"`
	Title          string   `gorm:"size:255;not null"`
	Description    string   `gorm:"type:text"`
	Priority       Priority `gorm:"size:16;default:MEDIUM;index"`
	Status         Status   `gorm:"size:16;default:PENDING;index"`
	DueAt          *time.Time
	ResponseDueAt  *time.Time
	AcknowledgedAt *time.Time
	CompletedAt    *time.Time
	AuthorID       uint  `gorm:"index;not null"`
	PropertyID     *uint `gorm:"index"`
	UnitID         *uint
	AssetID        *uint
	AssigneeID     *uint `gorm:"index"`
	SlaPolicyID    *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Author    User                        `gorm:"foreignKey:AuthorID"`
	Property  *Property                   `gorm:"foreignKey:PropertyID"`
	Unit      *Unit                       `gorm:"foreignKey:UnitID"`
	Asset     *MaintenanceAsset           `gorm:"foreignKey:AssetID"`
	Assignee  *Technician                 `gorm:"foreignKey:AssigneeID"`
	SlaPolicy *MaintenanceSlaPolicy       `gorm:"foreignKey:SlaPolicyID"`
	Notes     []MaintenanceNote           `gorm:"foreignKey:RequestID"`
	History   []MaintenanceRequestHistory `gorm:"foreignKey:RequestID"`
}

// MaintenanceRequestHistory is one append-only audit row per
// state-changing operation. Rows are never updated or deleted.
type MaintenanceRequestHistory struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	RequestID      uint    `gorm:"index;not null"`
	FromStatus     *Status `gorm:"size:16"`
	ToStatus       *Status `gorm:"size:16"`
	FromAssigneeID *uint
	ToAssigneeID   *uint
	Note           string `gorm:"type:text"`
	ChangedByID    *uint
	CreatedAt      time.Time

	ChangedBy    *User       `gorm:"foreignKey:ChangedByID"`
	FromAssignee *Technician `gorm:"foreignKey:FromAssigneeID"`
	ToAssignee   *Technician `gorm:"foreignKey:ToAssigneeID"`
}

// MaintenanceNote is a free-text annotation on a request, append-only.
type MaintenanceNote struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RequestID uint   `gorm:"index;not null"`
	AuthorID  uint   `gorm:"not null"`
	Body      string `gorm:"size:1000;not null"`
	CreatedAt time.Time

	Author User `gorm:"foreignKey:AuthorID"`
}
