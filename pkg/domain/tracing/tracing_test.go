package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		check   func(t *testing.T, o Options)
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				assert.Equal(t, HTTPExporter, o.ExporterType)
				assert.Equal(t, 1.0, o.SamplingRate)
				assert.Empty(t, o.ServiceName)
			},
		},
		{
			name: "service identity",
			opts: []Option{WithServiceName("settings-admin"), WithServiceVersion("1.2.0")},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, "settings-admin", o.ServiceName)
				assert.Equal(t, "1.2.0", o.ServiceVersion)
			},
		},
		{
			name: "grpc collector",
			opts: []Option{
				WithExporterType(GRPCExporter),
				WithCollectorEndpoint("otel:4317"),
				WithInsecure(true),
				WithHeaders(map[string]string{"api-key": "k"}),
			},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, GRPCExporter, o.ExporterType)
				assert.Equal(t, "otel:4317", o.CollectorEndpoint)
				assert.True(t, o.Insecure)
				assert.Equal(t, map[string]string{"api-key": "k"}, o.Headers)
			},
		},
		{
			name: "default propagators",
			opts: []Option{WithDefaultPropagators()},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, []string{PropagatorTraceContext, PropagatorBaggage}, o.PropagatorTypes)
			},
		},
		{
			name: "baggage only",
			opts: []Option{WithPropagatorTypes([]string{PropagatorBaggage})},
			check: func(t *testing.T, o Options) {
				assert.Equal(t, []string{PropagatorBaggage}, o.PropagatorTypes)
			},
		},
		{
			name:    "unknown propagator",
			opts:    []Option{WithPropagatorTypes([]string{PropagatorTraceContext, "b3"})},
			wantErr: true,
		},
		{
			name: "sampling rate bounds",
			opts: []Option{WithSamplingRate(0)},
			check: func(t *testing.T, o Options) {
				assert.Zero(t, o.SamplingRate)
			},
		},
		{
			name:    "negative sampling rate",
			opts:    []Option{WithSamplingRate(-0.1)},
			wantErr: true,
		},
		{
			name:    "sampling rate above one",
			opts:    []Option{WithSamplingRate(1.1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := options.Build(DefaultOptions(), tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, o)
		})
	}
}
