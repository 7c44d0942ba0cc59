package domain

// Identity - номер игрока в матче.
type Identity uint8

const (
	IdentityNone Identity = iota
	IdentityOne
	IdentityTwo
)

func (i Identity) String() string {
	switch i {
	case IdentityOne:
		return "ONE"
	case IdentityTwo:
		return "TWO"
	default:
		return "NONE"
	}
}

// Other возвращает соперника.
func (i Identity) Other() Identity {
	switch i {
	case IdentityOne:
		return IdentityTwo
	case IdentityTwo:
		return IdentityOne
	default:
		return IdentityNone
	}
}

// PositionKind - роль игрока в текущем овере.
type PositionKind uint8

const (
	PositionBatter PositionKind = iota + 1
	PositionFielder
)

func (p PositionKind) String() string {
	switch p {
	case PositionBatter:
		return "BATTER"
	case PositionFielder:
		return "FIELDER"
	default:
		return "UNKNOWN"
	}
}

// Opposite используется при смене сторон после овера.
func (p PositionKind) Opposite() PositionKind {
	switch p {
	case PositionBatter:
		return PositionFielder
	case PositionFielder:
		return PositionBatter
	default:
		return p
	}
}
