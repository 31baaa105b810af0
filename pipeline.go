package looper

import (
	"context"
	"errors"
	"fmt"

	"github.com/pipelined/looper/asset"
	"github.com/pipelined/looper/block"
	"github.com/pipelined/looper/config"
	"github.com/pipelined/looper/log"
	"github.com/pipelined/looper/metric"
	"github.com/pipelined/looper/stream"
	"github.com/pipelined/looper/tempo"
)

type (
	// pipeline is a set of allocated blocks in dispatch order.
	pipeline struct {
		startMeasure int
		clock        *tempo.Clock
		router       *stream.Router
		sources      []source
		transformers []transformer
		sinks        []sink
		flushers     []flusher
	}

	source struct {
		name string
		block.Source
		measure metric.MeasureFunc
	}

	transformer struct {
		name string
		block.Transformer
		measure metric.MeasureFunc
	}

	sink struct {
		name string
		block.Sink
		measure metric.MeasureFunc
	}

	flusher struct {
		name string
		uid  string
		block.Flusher
	}
)

// build allocates blocks of the project. Sources are allocated first, then
// transformers and sinks, each group in the declared order. Allocated
// blocks are released if any allocation fails.
func (r *Runner) build(data []byte) (*pipeline, error) {
	project, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	t, err := project.Tempo()
	if err != nil {
		return nil, err
	}
	sampleRate := project.Config.SampleRate
	bufferSize := project.Config.FramesPerBuffer

	clock := tempo.New(sampleRate, bufferSize, r.log)
	if err := clock.Init(t); err != nil {
		return nil, err
	}
	assets := asset.New(r.assets, sampleRate, r.log)
	for ext, fn := range r.decoders {
		assets.Register(ext, fn)
	}

	groups := make(map[block.Kind][]*block.Config)
	for _, d := range project.Devices {
		cfg, err := d.BlockConfig()
		if err != nil {
			return nil, err
		}
		kind, err := r.registry.Kind(cfg.Type)
		if err != nil {
			return nil, cfg.Wrap("type", err)
		}
		groups[kind] = append(groups[kind], cfg)
	}

	p := pipeline{
		startMeasure: project.Config.StartMeasure,
		clock:        clock,
		router:       stream.NewRouter(bufferSize, r.log),
	}
	binding := func(cfg *block.Config) (block.Binding, error) {
		b := block.Binding{
			UID:        block.NewUID(),
			Config:     cfg,
			Clock:      clock,
			Keys:       r.keyboard,
			SampleRate: sampleRate,
			BufferSize: bufferSize,
			Assets:     assets,
		}
		b.Log = r.log.WithFields(log.Fields{
			"block": cfg.Name,
			"type":  cfg.Type,
			"uid":   b.UID,
		})
		for _, name := range cfg.InputChannels {
			buf, err := p.router.Bind(name)
			if err != nil {
				return b, cfg.Wrap("input_channels", err)
			}
			b.Inputs = append(b.Inputs, buf)
		}
		for _, name := range cfg.OutputChannels {
			buf, err := p.router.Create(name)
			if err != nil {
				return b, cfg.Wrap("output_channels", err)
			}
			b.Outputs = append(b.Outputs, buf)
		}
		return b, nil
	}

	fail := func(err error) (*pipeline, error) {
		if errFlush := p.release(); errFlush != nil {
			r.log.Errorf("failed to release partial pipeline: %v", errFlush)
		}
		return nil, err
	}
	for _, cfg := range groups[block.KindSource] {
		b, err := binding(cfg)
		if err != nil {
			return fail(err)
		}
		if err := b.ExpectInputs(0); err != nil {
			return fail(err)
		}
		if err := b.ExpectOutputs(1); err != nil {
			return fail(err)
		}
		fn, _ := r.registry.Source(cfg.Type)
		s, err := fn(b)
		if err != nil {
			return fail(allocError(cfg, err))
		}
		p.addFlusher(cfg.Name, b.UID, s)
		p.sources = append(p.sources, source{
			name:    cfg.Name,
			Source:  s,
			measure: r.meter(cfg.Type, sampleRate),
		})
	}
	for _, cfg := range groups[block.KindTransformer] {
		b, err := binding(cfg)
		if err != nil {
			return fail(err)
		}
		fn, _ := r.registry.Transformer(cfg.Type)
		tr, err := fn(b)
		if err != nil {
			return fail(allocError(cfg, err))
		}
		p.addFlusher(cfg.Name, b.UID, tr)
		p.transformers = append(p.transformers, transformer{
			name:        cfg.Name,
			Transformer: tr,
			measure:     r.meter(cfg.Type, sampleRate),
		})
	}
	for _, cfg := range groups[block.KindSink] {
		b, err := binding(cfg)
		if err != nil {
			return fail(err)
		}
		if err := b.ExpectInputs(1); err != nil {
			return fail(err)
		}
		if err := b.ExpectOutputs(0); err != nil {
			return fail(err)
		}
		fn, _ := r.registry.Sink(cfg.Type)
		s, err := fn(b)
		if err != nil {
			return fail(allocError(cfg, err))
		}
		p.addFlusher(cfg.Name, b.UID, s)
		p.sinks = append(p.sinks, sink{
			name:    cfg.Name,
			Sink:    s,
			measure: r.meter(cfg.Type, sampleRate),
		})
	}
	return &p, nil
}

// allocError makes sure allocation error names the block.
func allocError(cfg *block.Config, err error) error {
	var cfgErr *block.ConfigError
	if errors.As(err, &cfgErr) {
		return err
	}
	return cfg.Wrap("", err)
}

// meter returns measure func if metrics are enabled.
func (r *Runner) meter(blockType string, sampleRate int) metric.MeasureFunc {
	if !r.metrics {
		return nil
	}
	return metric.Meter(blockType, sampleRate)()
}

func (p *pipeline) addFlusher(name, uid string, b interface{}) {
	if f, ok := b.(block.Flusher); ok {
		p.flushers = append(p.flushers, flusher{name: name, uid: uid, Flusher: f})
	}
}

// warmup reads sources and primes sinks which need it. Other sinks
// don't see warm-up cycles.
func (p *pipeline) warmup(ctx context.Context) error {
	for _, s := range p.sources {
		if err := s.Read(ctx); err != nil {
			return fmt.Errorf("source %q: %w", s.name, err)
		}
	}
	for _, s := range p.sinks {
		primer, ok := s.Sink.(block.Primer)
		if !ok {
			continue
		}
		if err := primer.Prime(ctx); err != nil {
			return fmt.Errorf("sink %q: %w", s.name, err)
		}
	}
	return nil
}

// cycle executes a single dispatch cycle.
func (p *pipeline) cycle(ctx context.Context) error {
	bufferSize := p.router.BufferSize()
	for _, s := range p.sources {
		if err := s.Read(ctx); err != nil {
			return fmt.Errorf("source %q: %w", s.name, err)
		}
		if s.measure != nil {
			s.measure(bufferSize)
		}
	}
	for _, t := range p.transformers {
		if err := t.Transform(); err != nil {
			return fmt.Errorf("transformer %q: %w", t.name, err)
		}
		if t.measure != nil {
			t.measure(bufferSize)
		}
	}
	for _, s := range p.sinks {
		if err := s.Write(ctx); err != nil {
			return fmt.Errorf("sink %q: %w", s.name, err)
		}
		if s.measure != nil {
			s.measure(bufferSize)
		}
	}
	return nil
}

// release flushes every allocated block and clears the router. All
// blocks are flushed even if some of them fail.
func (p *pipeline) release() error {
	var errs execErrors
	for _, f := range p.flushers {
		if err := f.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %q [%s]: %w", f.name, f.uid, err))
		}
	}
	p.flushers = nil
	p.router.ClearAll()
	return errs.ret()
}
