package recommend

import (
	"time"

	"github.com/google/uuid"
)

// Options tunes cache TTLs and timeouts. Zero values fall back to defaults.
type Options struct {
	CollaborativeTTL  time.Duration
	ContentTTL        time.Duration
	TrendingTTL       time.Duration
	BoughtTogetherTTL time.Duration
	PersonalizedTTL   time.Duration

	StrategyTimeout      time.Duration
	ExposureWriteTimeout time.Duration
	TrackWriteTimeout    time.Duration
	ConversionWindow     time.Duration
}

func (o Options) withDefaults() Options {
	if o.CollaborativeTTL == 0 {
		o.CollaborativeTTL = 30 * time.Minute
	}
	if o.ContentTTL == 0 {
		o.ContentTTL = 60 * time.Minute
	}
	if o.TrendingTTL == 0 {
		o.TrendingTTL = 30 * time.Minute
	}
	if o.BoughtTogetherTTL == 0 {
		o.BoughtTogetherTTL = 60 * time.Minute
	}
	if o.PersonalizedTTL == 0 {
		o.PersonalizedTTL = 30 * time.Minute
	}
	if o.StrategyTimeout == 0 {
		o.StrategyTimeout = 2 * time.Second
	}
	if o.ExposureWriteTimeout == 0 {
		o.ExposureWriteTimeout = 300 * time.Millisecond
	}
	if o.TrackWriteTimeout == 0 {
		o.TrackWriteTimeout = 2 * time.Second
	}
	if o.ConversionWindow == 0 {
		o.ConversionWindow = 7 * 24 * time.Hour
	}
	return o
}

// Deps groups the collaborators of Service.
type Deps struct {
	Interactions InteractionLog
	Writer       InteractionWriter
	Exposures    ExposureStore
	Catalog      Catalog
	Orders       OrderHistory
	Cache        Cache
	Tracker      Tracker
	Clock        Clock
}

type Service struct {
	interactions InteractionLog
	writer       InteractionWriter
	exposures    ExposureStore
	catalog      Catalog
	tracker      Tracker
	clock        Clock
	newID        func() uuid.UUID

	collaborative *CachedStrategy
	content       *CachedStrategy
	trending      *CachedStrategy
	together      *CachedStrategy
	personalized  *CachedStrategy

	run  runner
	opts Options
}

func New(d Deps, opts Options) *Service {
	opts = opts.withDefaults()

	collaborative := NewCachedStrategy(NewCollaborative(d.Interactions), d.Cache, opts.CollaborativeTTL)
	content := NewCachedStrategy(NewContentBased(d.Catalog), d.Cache, opts.ContentTTL)
	trending := NewCachedStrategy(NewTrending(d.Interactions, d.Catalog, d.Clock), d.Cache, opts.TrendingTTL)
	hybrid := NewHybrid(collaborative, content, trending, d.Interactions, opts.StrategyTimeout)

	return &Service{
		interactions: d.Interactions,
		writer:       d.Writer,
		exposures:    d.Exposures,
		catalog:      d.Catalog,
		tracker:      d.Tracker,
		clock:        d.Clock,
		newID:        uuid.New,

		collaborative: collaborative,
		content:       content,
		trending:      trending,
		together:      NewCachedStrategy(NewBoughtTogether(d.Orders), d.Cache, opts.BoughtTogetherTTL),
		personalized:  NewCachedStrategy(hybrid, d.Cache, opts.PersonalizedTTL),

		run:  runner{timeout: opts.StrategyTimeout},
		opts: opts,
	}
}

// Viewer identifies who a request is made for. CustomerID 0 is anonymous.
type Viewer struct {
	CustomerID int64
	SessionID  string
}

func (v Viewer) Anonymous() bool { return v.CustomerID == 0 }

func (v Viewer) customerPtr() *int64 {
	if v.Anonymous() {
		return nil
	}
	id := v.CustomerID
	return &id
}
