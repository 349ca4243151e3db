package context

type Key string

const (
	Claims     Key = "claims"
	Membership Key = "membership"
	Params     Key = "params"
)
