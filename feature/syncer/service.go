package syncer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"supplier-sync/core/cache"
	"supplier-sync/feature/catalog"
	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/commerce"
	"supplier-sync/feature/supplier"
	"supplier-sync/feature/supplier/factory"
)

// ClientFactory builds a feed client for a source. Overridable in tests.
type ClientFactory func(src supplier.Source, store *cache.Store, log *zap.Logger) (supplier.Client, error)

// ImageProcessor prepares product images for the platform payload.
type ImageProcessor interface {
	Process(ctx context.Context, productRef, altText string, urls []string) []commerce.Image
}

// Options tunes one sync invocation.
type Options struct {
	// Limit caps how many products are fetched per supplier; zero means all.
	Limit int
	// ForceRefresh bypasses the feed cache.
	ForceRefresh bool
	// Push sends eligible products to the commerce platform after the
	// catalog is reconciled.
	Push bool
}

// Result summarizes one supplier's run.
type Result struct {
	RunID     string
	Supplier  string
	Status    models.RunStatus
	Processed int
	Created   int
	Updated   int
	Errors    int
	Pushed    int
}

// Service orchestrates supplier syncs: fetch, reconcile into the catalog,
// and optionally push drafts to the commerce platform.
type Service struct {
	store    *catalog.Store
	cache    *cache.Store
	commerce commerce.Client
	images   ImageProcessor
	cfg      Config
	log      *zap.Logger

	factory ClientFactory
	now     func() time.Time
}

// NewService wires the orchestrator. The commerce client and image
// processor may be nil when pushing is not configured.
func NewService(store *catalog.Store, feedCache *cache.Store, commerceClient commerce.Client, images ImageProcessor, cfg Config, log *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Service{
		store:    store,
		cache:    feedCache,
		commerce: commerceClient,
		images:   images,
		cfg:      cfg,
		log:      log,
		factory:  factory.NewClient,
		now:      time.Now,
	}
}

// SyncAll runs every active source in order. Per-supplier failures do not
// stop the loop; each result carries its own status.
func (s *Service) SyncAll(ctx context.Context, sources []supplier.Source, opts Options) ([]Result, error) {
	var results []Result
	for _, src := range sources {
		if !src.Active {
			s.log.Info("skipping inactive supplier", zap.String("supplier", src.Code))
			continue
		}
		res, err := s.SyncSupplier(ctx, src, opts)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			s.log.Error("supplier sync failed",
				zap.String("supplier", src.Code),
				zap.Error(err))
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}
	return results, nil
}

// SyncSupplier runs the full pipeline for one source: PENDING run, fetch,
// per-product reconciliation, optional push, terminal status. The returned
// Result is non-nil whenever a run row was created, even on failure.
func (s *Service) SyncSupplier(ctx context.Context, src supplier.Source, opts Options) (*Result, error) {
	if _, err := s.store.EnsureSupplier(src.Code, src.Name); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	if _, err := s.store.CreateRun(runID, src.Code); err != nil {
		return nil, err
	}
	res := &Result{RunID: runID, Supplier: src.Code}

	client, err := s.factory(src, s.cache, s.log)
	if err != nil {
		return s.abortRun(res, src, "configuration", err)
	}

	if err := s.store.StartRun(runID); err != nil {
		return nil, err
	}
	s.log.Info("sync run started",
		zap.String("supplier", src.Code),
		zap.String("run_id", runID))

	fetchOpts := supplier.FetchOptions{Limit: opts.Limit, ForceRefresh: opts.ForceRefresh}
	products, err := client.FetchProducts(ctx, fetchOpts)
	if err != nil {
		return s.abortRun(res, src, "feed", err)
	}

	aux := s.fetchAuxiliary(ctx, src, client, fetchOpts, res)

	start := s.now()
	for _, p := range products {
		if ctx.Err() != nil {
			s.recordError(res.RunID, supplier.KindTransport, models.SeverityError,
				"run", src.Code, "sync interrupted: "+ctx.Err().Error())
			res.Errors++
			break
		}

		created, err := s.syncProduct(src, p, aux, start)
		res.Processed++
		if err != nil {
			res.Errors++
			s.recordError(res.RunID, supplier.KindOf(err), models.SeverityWarning,
				"product", p.SupplierRef, err.Error())
			s.log.Warn("product sync failed",
				zap.String("supplier", src.Code),
				zap.String("ref", p.SupplierRef),
				zap.Error(err))
			if s.cfg.ErrorLimit > 0 && res.Errors >= s.cfg.ErrorLimit {
				s.log.Error("error limit reached, aborting run",
					zap.String("supplier", src.Code),
					zap.Int("errors", res.Errors))
				break
			}
			continue
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if opts.Push && s.commerce != nil {
		pushed, pushErrs := s.pushSupplier(ctx, src, res.RunID)
		res.Pushed = pushed
		res.Errors += pushErrs
	}

	res.Status = runOutcome(res)
	if err := s.store.FinishRun(res.RunID, res.Status, res.Processed, res.Created, res.Updated, res.Errors); err != nil {
		return res, err
	}
	if res.Status == models.RunSuccess {
		if err := s.store.AdvanceLastSync(src.Code, start); err != nil {
			return res, err
		}
	}

	s.log.Info("sync run finished",
		zap.String("supplier", src.Code),
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Int("processed", res.Processed),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("errors", res.Errors),
		zap.Int("pushed", res.Pushed))
	return res, nil
}

// auxData holds the secondary feeds indexed for per-product lookups.
type auxData struct {
	stockBySKU map[string]models.Stock
	stockByRef map[string]models.Stock
	pricesSKU  map[string][]models.PriceTier
	pricesRef  map[string][]models.PriceTier
	printByRef map[string]models.PrintData
}

// fetchAuxiliary loads stock, prices, and print data. A secondary feed
// failing is recorded but does not abort the run; the products feed alone
// decides that.
func (s *Service) fetchAuxiliary(ctx context.Context, src supplier.Source, client supplier.Client, opts supplier.FetchOptions, res *Result) *auxData {
	aux := &auxData{
		stockBySKU: map[string]models.Stock{},
		stockByRef: map[string]models.Stock{},
		pricesSKU:  map[string][]models.PriceTier{},
		pricesRef:  map[string][]models.PriceTier{},
		printByRef: map[string]models.PrintData{},
	}

	// Secondary feeds ignore the product limit; a capped product list still
	// deserves complete stock and price coverage.
	full := supplier.FetchOptions{ForceRefresh: opts.ForceRefresh}

	stock, err := client.FetchStock(ctx, full)
	if err != nil {
		s.noteAuxFailure(res, src, "stock", err)
	}
	for _, st := range stock {
		if st.SKU != "" {
			aux.stockBySKU[st.SKU] = st
		}
		if st.SupplierRef != "" {
			aux.stockByRef[st.SupplierRef] = st
		}
	}

	prices, err := client.FetchPrices(ctx, full)
	if err != nil {
		s.noteAuxFailure(res, src, "prices", err)
	}
	for _, vp := range prices {
		if vp.SKU != "" {
			aux.pricesSKU[vp.SKU] = vp.Tiers
		}
		if vp.SupplierRef != "" {
			aux.pricesRef[vp.SupplierRef] = vp.Tiers
		}
	}

	printData, err := client.FetchPrintData(ctx, full)
	if err != nil {
		s.noteAuxFailure(res, src, "print data", err)
	}
	for _, pd := range printData {
		aux.printByRef[pd.SupplierRef] = pd
	}

	return aux
}

func (s *Service) noteAuxFailure(res *Result, src supplier.Source, feed string, err error) {
	res.Errors++
	s.recordError(res.RunID, supplier.KindOf(err), models.SeverityWarning,
		"feed", feed, err.Error())
	s.log.Warn("secondary feed unavailable",
		zap.String("supplier", src.Code),
		zap.String("feed", feed),
		zap.Error(err))
}

// syncProduct reconciles one normalized product inside a transaction, so a
// failure mid-variant leaves no partial writes behind.
func (s *Service) syncProduct(src supplier.Source, p models.Product, aux *auxData, now time.Time) (bool, error) {
	p.SupplierCode = src.Code

	var created bool
	err := s.store.WithTx(func(tx *catalog.Store) error {
		row, isNew, err := tx.UpsertProduct(p)
		if err != nil {
			return err
		}
		created = isNew

		category, err := resolveCategory(tx, src, p)
		if err != nil {
			return err
		}
		if category != nil {
			if err := tx.SetProductCategory(row.ID, category.ID); err != nil {
				return err
			}
		}

		variants := p.Variants
		if len(variants) == 0 {
			// A product without declared variants still needs one sellable
			// unit.
			variants = []models.Variant{{
				SupplierVariantRef: p.SupplierRef,
				SKU:                supplier.SynthesizeSKU(src.Prefix, p.SupplierRef, "", ""),
				Tiers:              p.Tiers,
			}}
		}

		basePriceSet := false
		for _, v := range variants {
			// Feeds may omit the variant code; synthesize it before any
			// SKU-keyed lookup or write.
			if v.SKU == "" {
				v.SKU = supplier.SynthesizeSKU(src.Prefix, p.SupplierRef, v.Color, v.Size)
			}

			tiers := v.Tiers
			if len(tiers) == 0 {
				tiers = aux.tiersFor(v.SKU, v.SupplierVariantRef)
			}
			if len(tiers) == 0 {
				tiers = p.Tiers
			}

			vrow, _, err := tx.UpsertVariant(row, v)
			if err != nil {
				return err
			}

			if st, ok := aux.stockFor(vrow.SKU, v.SupplierVariantRef); ok {
				if err := tx.ReplaceStock(vrow.ID, st); err != nil {
					return err
				}
			}

			if len(tiers) > 0 {
				if err := tx.ApplyPriceTiers(vrow.ID, tiers); err != nil {
					return err
				}
				if !basePriceSet {
					if base := models.BaseTier(tiers); base != nil {
						if err := tx.SetBasePrice(row.ID, *base); err != nil {
							return err
						}
						basePriceSet = true
					}
				}
			}
		}

		if pd, ok := aux.printByRef[p.SupplierRef]; ok {
			if err := tx.SetProductPrintable(row.ID, pd.Printable); err != nil {
				return err
			}
		}

		return tx.TouchProductLastSync(row.ID, now)
	})
	return created, err
}

func (a *auxData) stockFor(sku, variantRef string) (models.Stock, bool) {
	if st, ok := a.stockBySKU[sku]; ok {
		return st, true
	}
	st, ok := a.stockByRef[variantRef]
	return st, ok
}

func (a *auxData) tiersFor(sku, variantRef string) []models.PriceTier {
	if tiers, ok := a.pricesSKU[sku]; ok {
		return tiers
	}
	return a.pricesRef[variantRef]
}

// abortRun closes a run that failed before any product was processed.
func (s *Service) abortRun(res *Result, src supplier.Source, stage string, err error) (*Result, error) {
	severity := models.SeverityError
	s.recordError(res.RunID, supplier.KindOf(err), severity, stage, src.Code, err.Error())

	res.Errors = 1
	res.Status = models.RunError
	if ferr := s.store.FinishRun(res.RunID, models.RunError, 0, 0, 0, res.Errors); ferr != nil {
		s.log.Error("failed to close aborted run",
			zap.String("run_id", res.RunID),
			zap.Error(ferr))
	}
	return res, err
}

func (s *Service) recordError(runID string, kind supplier.ErrorKind, severity models.ErrorSeverity, objectType, objectRef, message string) {
	if kind == "" {
		kind = supplier.KindMapping
	}
	rec := models.SyncErrorRow{
		RunID:      runID,
		Kind:       string(kind),
		Severity:   severity,
		ObjectType: objectType,
		ObjectRef:  objectRef,
		Message:    message,
	}
	if err := s.store.RecordError(rec); err != nil {
		s.log.Error("failed to record sync error", zap.Error(err))
	}
}

// runOutcome maps counters to the terminal status: any processing at all
// with zero errors is SUCCESS, a mix is PARTIAL, nothing but errors is
// ERROR. An empty feed with no errors still counts as SUCCESS.
func runOutcome(res *Result) models.RunStatus {
	switch {
	case res.Errors == 0:
		return models.RunSuccess
	case res.Created+res.Updated+res.Pushed > 0:
		return models.RunPartial
	default:
		return models.RunError
	}
}
