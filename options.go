package sfddust

import "log/slog"

// DefaultBaseName is the common prefix of the SFD map files.
const DefaultBaseName = "SFD_dust_4096"

// Option configures Load and NewStore.
type Option func(*storeOptions)

type storeOptions struct {
	baseName string
	logger   *slog.Logger
}

var discardLogger = slog.New(slog.DiscardHandler)

func defaultStoreOptions() *storeOptions {
	return &storeOptions{
		baseName: DefaultBaseName,
		logger:   discardLogger,
	}
}

// WithBaseName sets the file prefix Load looks for; the hemisphere suffix
// and extension are appended, as in <base>_ngp.fits.
func WithBaseName(name string) Option {
	return func(o *storeOptions) {
		o.baseName = name
	}
}

// WithLogger sets the logger for load progress and cache builds.
// A nil logger leaves logging disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

type queryOptions struct {
	order int
}

// WithOrder sets the interpolation order: 0 nearest, 1 bilinear (default),
// 2-5 B-spline.
func WithOrder(order int) QueryOption {
	return func(o *queryOptions) {
		o.order = order
	}
}
