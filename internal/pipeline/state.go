package pipeline

// State is the position of a resolution run. Transitions are strictly
// forward; a run never revisits an earlier state.
type State string

const (
	StateIdle                  State = "idle"
	StateSearching             State = "searching"
	StateAwaitingTitleChoice   State = "awaiting title choice"
	StateAwaitingSeasonChoice  State = "awaiting season choice"
	StateAwaitingEpisodeChoice State = "awaiting episode choice"
	StateResolvingServers      State = "resolving servers"
	StateAwaitingServerChoice  State = "awaiting server choice"
	StateDecrypting            State = "decrypting"
	StateResolved              State = "resolved"
	StateFailed                State = "failed"
)
