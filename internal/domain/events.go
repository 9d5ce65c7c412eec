package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQueryStateChanged EventType = "QueryStateChanged"
	EventSearchChanged     EventType = "SearchChanged"
	EventPageChanged       EventType = "PageChanged"
	EventLimitChanged      EventType = "LimitChanged"
	EventLoadingChanged    EventType = "LoadingChanged"
	EventQueryForwarded    EventType = "QueryForwarded"
	EventResultPublished   EventType = "ResultPublished"
	EventResultDiscarded   EventType = "ResultDiscarded"
	EventFetchFailed       EventType = "FetchFailed"
	EventViewModelUpdated  EventType = "ViewModelUpdated"
	EventConfigLoaded      EventType = "ConfigLoaded"
	EventConfigSaved       EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QueryStateChangedEvent carries the full state after every accepted mutation
type QueryStateChangedEvent struct {
	State QueryState
}

func (e QueryStateChangedEvent) Type() EventType { return EventQueryStateChanged }

// SearchChangedEvent is emitted only when the search text actually changes
type SearchChangedEvent struct {
	Search string
}

func (e SearchChangedEvent) Type() EventType { return EventSearchChanged }

// PageChangedEvent is emitted only when the page index actually changes
type PageChangedEvent struct {
	Page int
}

func (e PageChangedEvent) Type() EventType { return EventPageChanged }

// LimitChangedEvent is emitted only when the page size actually changes
type LimitChangedEvent struct {
	Limit int
}

func (e LimitChangedEvent) Type() EventType { return EventLimitChanged }

// LoadingChangedEvent is emitted only when the loading flag flips
type LoadingChangedEvent struct {
	Loading bool
}

func (e LoadingChangedEvent) Type() EventType { return EventLoadingChanged }

// QueryForwardedEvent is emitted when a settled query key is sent to the fetcher
type QueryForwardedEvent struct {
	Seq    uint64
	Params QueryParams
}

func (e QueryForwardedEvent) Type() EventType { return EventQueryForwarded }

// ResultPublishedEvent carries the result of the latest forwarded query
type ResultPublishedEvent struct {
	Seq    uint64
	Params QueryParams
	Result FetchResult
}

func (e ResultPublishedEvent) Type() EventType { return EventResultPublished }

// ResultDiscardedEvent is emitted when a superseded fetch completes
type ResultDiscardedEvent struct {
	Seq    uint64
	Params QueryParams
}

func (e ResultDiscardedEvent) Type() EventType { return EventResultDiscarded }

// FetchFailedEvent reports a transport failure. The published result is empty.
type FetchFailedEvent struct {
	Seq    uint64
	Params QueryParams
	Err    error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// ViewModelUpdatedEvent carries a new view model snapshot
type ViewModelUpdatedEvent struct {
	ViewModel ViewModel
}

func (e ViewModelUpdatedEvent) Type() EventType { return EventViewModelUpdated }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
