// Package linked enumerates the local entity types that can carry a
// reference to a remote CRM record, and maps each type to the remote
// provider responsible for validating those references.
package linked

// EntityType identifies one linkable local entity type. The set is closed:
// adding a type means adding a constant here and a row to the dispatch
// tables below.
type EntityType int

const (
	Company EntityType = iota
	Opportunity
	Address
	Contact
	Appointment
	Task
	Note
)

// ProviderKey identifies which remote provider serves an entity type.
// Address and Contact share the directory provider; every other type maps
// 1:1 to its own provider.
type ProviderKey int

const (
	CompanyProvider ProviderKey = iota
	OpportunityProvider
	DirectoryProvider
	AppointmentProvider
	TaskProvider
	NoteProvider
)

// ordered is the fixed aggregation order. Reports and sweeps iterate in
// this order so output is stable across runs.
var ordered = []EntityType{
	Company,
	Opportunity,
	Address,
	Contact,
	Appointment,
	Task,
	Note,
}

var names = map[EntityType]string{
	Company:     "Company",
	Opportunity: "Opportunity",
	Address:     "Address",
	Contact:     "Contact",
	Appointment: "Appointment",
	Task:        "Task",
	Note:        "Note",
}

var providerKeys = map[EntityType]ProviderKey{
	Company:     CompanyProvider,
	Opportunity: OpportunityProvider,
	Address:     DirectoryProvider,
	Contact:     DirectoryProvider,
	Appointment: AppointmentProvider,
	Task:        TaskProvider,
	Note:        NoteProvider,
}

// All returns the linkable entity types in their fixed aggregation order.
// The returned slice is a copy; callers may reorder it.
func All() []EntityType {
	out := make([]EntityType, len(ordered))
	copy(out, ordered)
	return out
}

// String returns the entity type's display name.
func (t EntityType) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return "Unknown"
}

// Provider returns the key of the remote provider that validates references
// for this entity type.
func (t EntityType) Provider() ProviderKey {
	return providerKeys[t]
}

// Parse returns the entity type with the given display name.
func Parse(name string) (EntityType, bool) {
	for t, n := range names {
		if n == name {
			return t, true
		}
	}
	return 0, false
}
