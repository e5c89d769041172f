package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/manhwa"
)

// build decodes the descriptor at path and constructs its preferred export.
func (r *Registry) build(ctx context.Context, path string) (*entry, error) {
	dec, ok := r.decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s: unrecognized plugin file extension", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s: %v", path, err)
	}

	desc, err := dec.Decode(path, src)
	if err != nil {
		if manhwa.ErrorCode(err) == manhwa.ELOAD {
			return nil, err
		}
		return nil, manhwa.Errorf(manhwa.ELOAD, "%s: %v", path, err)
	}

	for _, export := range candidates(desc) {
		factory, ok := r.catalog.Factory(export.Kind)
		if !ok {
			r.logger.Debug("plugin export skipped", "path", path, "export", export.Name, "kind", export.Kind, "reason", "unknown kind")
			continue
		}
		ext, err := r.construct(ctx, factory, export)
		if err != nil {
			r.logger.Debug("plugin export skipped", "path", path, "export", export.Name, "kind", export.Kind, "err", err)
			continue
		}
		return &entry{path: path, export: export.Name, extractor: ext}, nil
	}

	return nil, manhwa.Errorf(manhwa.ELOAD, "%s: no constructible extractor among %d exports", path, len(desc.Exports))
}

// candidates orders exports for construction: the default export first,
// then the rest in declaration order.
func candidates(desc *manhwa.Descriptor) []manhwa.Export {
	def := -1
	for i, e := range desc.Exports {
		if e.Default {
			def = i
			break
		}
	}

	exports := make([]manhwa.Export, 0, len(desc.Exports))
	if def >= 0 {
		exports = append(exports, desc.Exports[def])
	}
	for i, e := range desc.Exports {
		if i != def {
			exports = append(exports, e)
		}
	}
	return exports
}

type constructResult struct {
	extractor manhwa.Extractor
	err       error
}

// construct runs factory with a deadline. A factory that does not return
// in time fails the construction; if it returns later, its extractor is
// closed.
func (r *Registry) construct(ctx context.Context, factory manhwa.Factory, export manhwa.Export) (manhwa.Extractor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.constructTimeout)
	defer cancel()

	done := make(chan constructResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- constructResult{err: manhwa.Errorf(manhwa.ELOAD, "factory %q panicked: %v", export.Kind, p)}
			}
		}()
		ext, err := factory(ctx, export)
		done <- constructResult{extractor: ext, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		if res.extractor == nil {
			return nil, manhwa.Errorf(manhwa.ELOAD, "factory %q returned no extractor", export.Kind)
		}
		return res.extractor, nil
	case <-ctx.Done():
		go func() {
			if res := <-done; res.extractor != nil {
				_ = closeExtractor(res.extractor)
			}
		}()
		return nil, manhwa.Errorf(manhwa.ELOAD, "constructing %q: %v", export.Name, ctx.Err())
	}
}
