// Package observe bootstraps the OpenTelemetry pipeline: a prometheus-backed
// meter provider, Go runtime instrumentation and the /metrics endpoint.
package observe

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"group-chat/version"
)

var instanceId string

func init() {
	instanceId = uuid.NewString()
}

func Options() *options {
	return &options{
		resource: resource.Default(),
	}
}

type options struct {
	err           error
	resource      *resource.Resource
	meterProvider *metric.MeterProvider
}

func (o *options) handleErr(optionErr error) {
	o.err = errors.Join(o.err, optionErr)
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline globally.
// If it does not return an error, make sure to call shutdown for proper cleanup.
func SetupOTelSDK(ctx context.Context, opts *options) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// shutdown calls cleanup functions registered via shutdownFuncs.
	// The errors from the calls are joined.
	// Each registered cleanup will be invoked once.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	// handleErr calls shutdown for cleanup and makes sure that all errors are returned.
	handleErr := func(inErr error) {
		err = errors.Join(inErr, shutdown(ctx))
	}

	if opts.err != nil {
		handleErr(opts.err)
		return
	}

	otel.SetTextMapPropagator(newPropagator())

	if opts.meterProvider != nil {
		meterProvider := opts.meterProvider
		shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
		otel.SetMeterProvider(meterProvider)

		if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
			handleErr(err)
			return shutdown, err
		}
	}

	return
}

func newPropagator() propagation.TextMapPropagator {
	return propagation.TraceContext{}
}

// EnableMeterProvider registers a prometheus exporter; scrape it with
// ServeFiberPromMetrics.
func (opts *options) EnableMeterProvider() *options {
	metricExporter, err := otelprom.New()
	if err != nil {
		opts.handleErr(err)
		return opts
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metricExporter),
		metric.WithResource(opts.resource),
	)

	opts.meterProvider = meterProvider
	return opts
}

// see https://opentelemetry.io/docs/specs/semconv/resource/
func (opts *options) WithService(serviceName, namespace string) *options {
	res, err := resource.Merge(resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version.Version),
			semconv.ServiceNamespace(namespace),
			semconv.ServiceInstanceID(instanceId),
		),
	)
	if err != nil {
		opts.handleErr(err)
	}

	opts.resource = res
	return opts
}

// ServeFiberPromMetrics exposes the prometheus registry on path.
func ServeFiberPromMetrics(path string, app *fiber.App) {
	app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
}
