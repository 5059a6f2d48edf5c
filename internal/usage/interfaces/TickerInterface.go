package interfaces

type TickerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}
