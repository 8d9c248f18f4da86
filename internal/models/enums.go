package models

// Role identifies what a user account is allowed to do.
type Role string

const (
	RoleTenant          Role = "TENANT"
	RolePropertyManager Role = "PROPERTY_MANAGER"
)

// Priority is the urgency classification of a maintenance request.
type Priority string

const (
	PriorityLow       Priority = "LOW"
	PriorityMedium    Priority = "MEDIUM"
	PriorityHigh      Priority = "HIGH"
	PriorityEmergency Priority = "EMERGENCY"
)

// Priorities lists all valid priority values.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency}
}

// Rank orders priorities from least (0) to most urgent. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityEmergency:
		return 3
	}
	return -1
}

// Status is the workflow stage of a maintenance request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Statuses lists all valid status values.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// Rank orders statuses by workflow stage. Unknown values rank last.
func (s Status) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	}
	return 3
}

// TechnicianRole describes the employment relationship of a technician.
type TechnicianRole string

const (
	TechnicianInHouse    TechnicianRole = "IN_HOUSE"
	TechnicianContractor TechnicianRole = "CONTRACTOR"
	TechnicianVendor     TechnicianRole = "VENDOR"
	TechnicianSpecialist TechnicianRole = "SPECIALIST"
)

// TechnicianRoles lists all valid technician role values.
func TechnicianRoles() []TechnicianRole {
	return []TechnicianRole{TechnicianInHouse, TechnicianContractor, TechnicianVendor, TechnicianSpecialist}
}

// AssetCategory classifies a maintenance asset.
type AssetCategory string

const (
	AssetHVAC       AssetCategory = "HVAC"
	AssetPlumbing   AssetCategory = "PLUMBING"
	AssetElectrical AssetCategory = "ELECTRICAL"
	AssetAppliance  AssetCategory = "APPLIANCE"
	AssetStructural AssetCategory = "STRUCTURAL"
	AssetElevator   AssetCategory = "ELEVATOR"
	AssetSecurity   AssetCategory = "SECURITY"
	AssetOther      AssetCategory = "OTHER"
)

// AssetCategories lists all valid asset category values.
func AssetCategories() []AssetCategory {
	return []AssetCategory{
		AssetHVAC, AssetPlumbing, AssetElectrical, AssetAppliance,
		AssetStructural, AssetElevator, AssetSecurity, AssetOther,
	}
}
