package entity

// Roles válidos del sistema.
const (
	RoleAdmin     = "admin"
	RoleOperador  = "operador"
	RoleConductor = "conductor"
	RoleCliente   = "cliente"
)

// Actor identifica a quien ejecuta una operación (tomado del JWT).
// ClientID solo aplica al rol cliente.
type Actor struct {
	UserID   int64
	Role     string
	ClientID int64
}

// IsValidRole indica si role es uno de los roles conocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperador, RoleConductor, RoleCliente:
		return true
	}
	return false
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff admin u operador: los únicos que crean cargas y envíos.
func (a Actor) IsStaff() bool { return a.Role == RoleAdmin || a.Role == RoleOperador }

// ScopedToClient es true cuando el actor solo puede operar sobre su propio cliente.
func (a Actor) ScopedToClient() bool { return a.Role == RoleCliente }

// CanActOnClient verifica el alcance del actor sobre un cliente.
func (a Actor) CanActOnClient(clientID int64) bool {
	if !a.ScopedToClient() {
		return true
	}
	return a.ClientID == clientID
}
