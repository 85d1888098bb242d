package filings

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"filedesk/internal/catalog"
)

var (
	aggTracer         = otel.Tracer("filedesk.aggregate")
	aggMeter          = otel.Meter("filedesk.aggregate")
	recordsFetched, _ = aggMeter.Int64Counter("aggregate.records.fetched", metric.WithDescription("Records returned by the stores before merging"))
	recordsSkipped, _ = aggMeter.Int64Counter("aggregate.records.skipped", metric.WithDescription("Generic records skipped by the denylist or dropped for missing ids"))
	storesFailed, _   = aggMeter.Int64Counter("aggregate.stores.failed", metric.WithDescription("Store fetches that errored and contributed nothing"))
)

// FetchResult is the outcome of one aggregated fetch. Errors lists
// per-store failures; they never abort the aggregation and are
// informational only.
type FetchResult struct {
	Records []Record
	Errors  []string
}

// storeFetch is one settled fan-out request, tagged with its registry
// position so the merge runs in the fixed order regardless of completion
// order.
type storeFetch struct {
	svc     *catalog.Service // nil for the generic store
	records []Record
	err     error
}

// Applications produces the single de-duplicated list of a user's
// submissions across the generic store and every specialized store.
//
// All requests are issued concurrently with settle-all semantics: a failed
// or slow store contributes zero records and never blocks the rest. The
// whole call runs under the configured budget; when it expires, whatever
// has settled is merged and returned.
//
// Merge policy: generic records come first, minus those the denylist
// assigns to a specialized store; specialized stores follow in registry
// order. Keys are string-coerced submission ids; a later record with a
// colliding key fully replaces the earlier value (no field merge) while
// keeping its original position. Records with no usable id are dropped.
func (s *Service) Applications(ctx context.Context, email string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fanoutBudget)
	defer cancel()

	ctx, span := aggTracer.Start(ctx, "aggregate.applications", trace.WithAttributes(
		attribute.String("user.email", email),
	))
	defer span.End()

	services := catalog.All()
	fetches := make([]storeFetch, len(services)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanoutConcurrency)

	// Slot 0 is the generic store; specialized stores keep registry order.
	g.Go(func() error {
		fetches[0] = s.fetchStore(gctx, nil, email)
		return nil
	})
	for i := range services {
		svc := &services[i]
		slot := i + 1
		g.Go(func() error {
			fetches[slot] = s.fetchStore(gctx, svc, email)
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	result := &FetchResult{}
	merged := newRecordSet()
	denylist := catalog.GenericDenylist()

	for _, f := range fetches {
		if f.err != nil {
			storesFailed.Add(ctx, 1)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", storeName(f.svc), f.err))
			continue
		}
		recordsFetched.Add(ctx, int64(len(f.records)), metric.WithAttributes(attribute.String("store", storeName(f.svc))))

		if f.svc == nil {
			mergeGeneric(ctx, merged, f.records, denylist)
		} else {
			mergeSpecialized(ctx, merged, f.records, *f.svc)
		}
	}

	result.Records = merged.values()
	span.SetAttributes(
		attribute.Int("aggregate.records", len(result.Records)),
		attribute.Int("aggregate.store_errors", len(result.Errors)),
	)
	return result, nil
}

// fetchStore settles one store request under the per-request timeout.
func (s *Service) fetchStore(ctx context.Context, svc *catalog.Service, email string) storeFetch {
	ctx, cancel := context.WithTimeout(ctx, s.fanoutTimeout)
	defer cancel()

	ctx, span := aggTracer.Start(ctx, "aggregate.fetch_store", trace.WithAttributes(
		attribute.String("store", storeName(svc)),
	))
	defer span.End()

	var (
		records []Record
		err     error
	)
	if svc == nil {
		records, err = s.MyRequests(ctx, email)
	} else {
		records, err = s.ServiceApplications(ctx, *svc, email)
	}
	if err != nil {
		log.Printf("Aggregation: %s store failed: %v", storeName(svc), err)
	}
	return storeFetch{svc: svc, records: records, err: err}
}

// mergeGeneric inserts generic-store records, skipping the ones a
// specialized store owns so they are not double-counted. Whether that
// ownership split belongs on the client is an open backend question; the
// behavior is load-bearing either way.
func mergeGeneric(ctx context.Context, merged *recordSet, records []Record, denylist catalog.Denylist) {
	for _, rec := range records {
		key := firstID(rec["submissionId"], rec["id"])
		if key == "" {
			recordsSkipped.Add(ctx, 1)
			continue
		}
		if denylist.Matches(key, rec.str("service", "serviceName")) {
			recordsSkipped.Add(ctx, 1)
			continue
		}

		normalized := make(Record, len(rec)+1)
		for k, v := range rec {
			normalized[k] = v
		}
		normalized["id"] = key
		if normalized["serviceName"] == nil {
			normalized["serviceName"] = rec.str("service")
		}
		merged.put(key, normalized)
	}
}

// mergeSpecialized inserts one specialized store's records: form fields
// first, then top-level fields so they win key collisions, plus the
// synthesized service label.
func mergeSpecialized(ctx context.Context, merged *recordSet, records []Record, svc catalog.Service) {
	for _, rec := range records {
		form := ParseFormData(rec["formData"])

		var formID any
		if form != nil {
			formID = form["submissionId"]
		}
		key := firstID(formID, rec["submissionId"], rec["id"])
		if key == "" {
			recordsSkipped.Add(ctx, 1)
			continue
		}

		normalized := make(Record, len(form)+len(rec)+3)
		for k, v := range form {
			normalized[k] = v
		}
		for k, v := range rec {
			if k == "formData" {
				continue
			}
			normalized[k] = v
		}
		normalized["id"] = key
		normalized["service"] = svc.Slug
		normalized["serviceName"] = svc.Label(normalized)
		merged.put(key, normalized)
	}
}

func storeName(svc *catalog.Service) string {
	if svc == nil {
		return "generic"
	}
	return svc.Slug
}

// recordSet is a keyed collection with JS-object semantics: values iterate
// in first-insertion order and a colliding put replaces the value without
// moving it.
type recordSet struct {
	order []string
	items map[string]Record
}

func newRecordSet() *recordSet {
	return &recordSet{items: make(map[string]Record)}
}

func (rs *recordSet) put(key string, rec Record) {
	if _, exists := rs.items[key]; !exists {
		rs.order = append(rs.order, key)
	}
	rs.items[key] = rec
}

func (rs *recordSet) values() []Record {
	out := make([]Record, 0, len(rs.order))
	for _, key := range rs.order {
		out = append(out, rs.items[key])
	}
	return out
}
