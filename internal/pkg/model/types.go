package model

// StateType is the declared value type of a device state.
type StateType string

func (st StateType) String() string {
	return string(st)
}

const (
	StateTypeUntyped StateType = ""
	StateTypeBoolean StateType = "boolean"
)

type Room string

func (r Room) String() string {
	return string(r)
}

const (
	RoomGlobal  Room = "global"
	RoomRoom    Room = "room"
	RoomHall    Room = "hall"
	RoomKitchen Room = "kitchen"
)

// AssignableRooms are the rooms a device may be added to at runtime.
var AssignableRooms = []Room{
	RoomRoom,
	RoomHall,
	RoomKitchen,
}

type Domain string

func (d Domain) String() string {
	return string(d)
}

const (
	DomainLight         Domain = "light"
	DomainSwitch        Domain = "switch"
	DomainHumidifier    Domain = "humidifier"
	DomainFan           Domain = "fan"
	DomainClimate       Domain = "climate"
	DomainHomeAssistant Domain = "homeassistant"
)

// ControllableDomains are the hub domains a state change can be dispatched to.
var ControllableDomains = []Domain{
	DomainLight,
	DomainSwitch,
	DomainHumidifier,
	DomainFan,
	DomainClimate,
}

type Service string

func (s Service) String() string {
	return string(s)
}

const (
	ServiceToggle  Service = "toggle"
	ServiceTurnOn  Service = "turn_on"
	ServiceTurnOff Service = "turn_off"
)
