package hostarc

import (
	"log/slog"

	"github.com/ferrum-io/hostarc/hostapi"
	"github.com/ferrum-io/hostarc/internal/arcfmt"
	"github.com/ferrum-io/hostarc/internal/engine"
	"github.com/ferrum-io/hostarc/internal/object"
	"github.com/ferrum-io/hostarc/variant"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger handed to every object the registry creates.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

type registeredFormat struct {
	factory  func() Reader
	meta     arcfmt.Format
	inTable  *hostapi.InArchiveTable
	outTable *hostapi.OutArchiveTable
}

// Registry is the module's host-facing entry surface. It maps class
// identifiers to format factories and answers handler-metadata queries.
// Register all formats before exposing the registry to the host; the host
// entry points take no lock.
type Registry struct {
	formats []registeredFormat
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a format. The factory is invoked once per created object;
// one prototype instance is built eagerly to capture the format metadata.
func (r *Registry) Register(factory func() Reader) {
	proto := factory()
	r.formats = append(r.formats, registeredFormat{
		factory:  factory,
		meta:     proto,
		inTable:  engine.BuildInTable(),
		outTable: engine.BuildOutTable(proto.SupportsUpdate()),
	})
}

// FormatCount reports the number of registered formats.
func (r *Registry) FormatCount() uint32 {
	return uint32(len(r.formats))
}

// CreateObject creates a plugin object for the format identified by classID
// and returns the facet matching iid. The returned handle carries the
// object's initial reference; the caller owns it and releases it when done.
func (r *Registry) CreateObject(classID hostapi.ClassID, iid hostapi.IID) (hostapi.Handle, hostapi.Status) {
	var format *registeredFormat
	for i := range r.formats {
		if r.formats[i].meta.ClassID() == classID {
			format = &r.formats[i]
			break
		}
	}
	if format == nil {
		return nil, hostapi.StatusClassNotAvailable
	}

	o := object.New(format.factory(), format.inTable, format.outTable, r.logger)
	switch iid {
	case hostapi.IIDUnknown, hostapi.IIDInArchive:
		return o, hostapi.StatusOK
	case hostapi.IIDOutArchive:
		if !format.meta.SupportsUpdate() {
			o.Release()
			return nil, hostapi.StatusClassNotAvailable
		}
		// The facet shares the object's initial reference.
		return o.Facet(), hostapi.StatusOK
	default:
		o.Release()
		return nil, hostapi.StatusClassNotAvailable
	}
}

// HandlerProperty answers a handler-metadata query for the format at
// formatIndex, marshaling the value into v. Unknown or inapplicable
// properties yield an empty variant with a success status.
func (r *Registry) HandlerProperty(formatIndex uint32, prop hostapi.HandlerPropID, v *variant.Variant, a *variant.Arena) hostapi.Status {
	if formatIndex >= uint32(len(r.formats)) {
		return hostapi.StatusInvalidArg
	}
	if v == nil || a == nil {
		return hostapi.StatusInvalidArg
	}
	meta := r.formats[formatIndex].meta

	switch prop {
	case hostapi.HandlerPropName:
		v.SetString(a, meta.Name())
	case hostapi.HandlerPropClassID:
		id := meta.ClassID()
		v.SetBytes(a, id[:])
	case hostapi.HandlerPropExtension:
		v.SetString(a, meta.Extension())
	case hostapi.HandlerPropUpdate:
		v.SetBool(a, meta.SupportsUpdate())
	case hostapi.HandlerPropSignature:
		if sig := meta.Signature(); len(sig) > 0 {
			v.SetBytes(a, sig)
		} else {
			v.SetEmpty(a)
		}
	case hostapi.HandlerPropSignatureOffset:
		v.SetUint32(a, 0)
	default:
		v.SetEmpty(a)
	}
	return hostapi.StatusOK
}
