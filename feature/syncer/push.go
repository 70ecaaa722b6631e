package syncer

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"supplier-sync/feature/catalog/models"
	"supplier-sync/feature/commerce"
	"supplier-sync/feature/supplier"
)

// pushSupplier sends the supplier's catalog to the platform. Products with
// a known remote id are updated one by one; new products are created in
// batches. A failed batch falls back to one-by-one creates so a single bad
// product cannot sink its batchmates.
func (s *Service) pushSupplier(ctx context.Context, src supplier.Source, runID string) (int, int) {
	products, err := s.store.ProductsForSupplier(src.Code)
	if err != nil {
		s.recordError(runID, supplier.KindMapping, models.SeverityError,
			"push", src.Code, "load products for push: "+err.Error())
		return 0, 1
	}

	pushed, pushErrs := 0, 0

	var pending []pushCandidate
	for i := range products {
		if ctx.Err() != nil {
			break
		}
		p := &products[i]

		item, err := s.buildPushItem(ctx, src, p)
		if err != nil {
			pushErrs++
			s.recordError(runID, supplier.KindOf(err), models.SeverityWarning,
				"product", p.SupplierRef, err.Error())
			continue
		}

		remoteID := p.RemoteID
		if remoteID == 0 {
			// The store may already know this SKU from a run before the
			// local mapping existed.
			remoteID, err = s.commerce.FindBySKU(ctx, item.SKU)
			if err != nil {
				pushErrs++
				s.recordError(runID, supplier.KindOf(err), models.SeverityWarning,
					"product", p.SupplierRef, err.Error())
				continue
			}
		}

		if remoteID != 0 {
			payload := commerce.BuildPayload(item)
			if err := s.commerce.UpdateDraft(ctx, remoteID, payload); err != nil {
				pushErrs++
				s.recordError(runID, supplier.KindOf(err), models.SeverityWarning,
					"product", p.SupplierRef, err.Error())
				continue
			}
			if err := s.store.SetProductRemote(p.ID, remoteID, commerce.StatusDraft); err != nil {
				pushErrs++
				s.recordError(runID, supplier.KindMapping, models.SeverityWarning,
					"product", p.SupplierRef, err.Error())
				continue
			}
			pushed++
			continue
		}

		pending = append(pending, pushCandidate{product: p, item: item})
		if len(pending) >= s.cfg.BatchSize {
			n, e := s.createBatch(ctx, runID, pending)
			pushed += n
			pushErrs += e
			pending = pending[:0]
		}
	}

	if len(pending) > 0 && ctx.Err() == nil {
		n, e := s.createBatch(ctx, runID, pending)
		pushed += n
		pushErrs += e
	}

	return pushed, pushErrs
}

type pushCandidate struct {
	product *models.ProductRow
	item    commerce.PushItem
}

// createBatch creates the candidates via the batch endpoint, recording the
// remote mapping per confirmed item. When the whole batch call fails, each
// candidate is retried individually.
func (s *Service) createBatch(ctx context.Context, runID string, batch []pushCandidate) (int, int) {
	payloads := make([]commerce.ProductPayload, len(batch))
	for i, c := range batch {
		payloads[i] = commerce.BuildPayload(c.item)
	}

	results, err := s.commerce.BatchCreate(ctx, payloads)
	if err != nil {
		s.log.Warn("batch create failed, retrying products individually",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return s.createIndividually(ctx, runID, batch)
	}

	pushed, pushErrs := 0, 0
	for i, c := range batch {
		if i >= len(results) || results[i].Err != nil {
			pushErrs++
			msg := "batch response missing item"
			if i < len(results) && results[i].Err != nil {
				msg = results[i].Err.Error()
			}
			s.recordError(runID, supplier.KindExternalPush, models.SeverityWarning,
				"product", c.product.SupplierRef, msg)
			continue
		}
		if err := s.confirmPush(c.product, results[i].RemoteID); err != nil {
			pushErrs++
			s.recordError(runID, supplier.KindMapping, models.SeverityWarning,
				"product", c.product.SupplierRef, err.Error())
			continue
		}
		pushed++
	}
	return pushed, pushErrs
}

func (s *Service) createIndividually(ctx context.Context, runID string, batch []pushCandidate) (int, int) {
	pushed, pushErrs := 0, 0
	for _, c := range batch {
		if ctx.Err() != nil {
			break
		}
		remoteID, err := s.commerce.CreateDraft(ctx, commerce.BuildPayload(c.item))
		if err != nil {
			pushErrs++
			s.recordError(runID, supplier.KindOf(err), models.SeverityWarning,
				"product", c.product.SupplierRef, err.Error())
			continue
		}
		if err := s.confirmPush(c.product, remoteID); err != nil {
			pushErrs++
			s.recordError(runID, supplier.KindMapping, models.SeverityWarning,
				"product", c.product.SupplierRef, err.Error())
			continue
		}
		pushed++
	}
	return pushed, pushErrs
}

// confirmPush stores the remote mapping only after the platform confirmed
// the product.
func (s *Service) confirmPush(p *models.ProductRow, remoteID int64) error {
	p.RemoteID = remoteID
	return s.store.SetProductRemote(p.ID, remoteID, commerce.StatusDraft)
}

// buildPushItem assembles the payload inputs for one product: primary SKU,
// aggregate stock, distinct attribute options, and prepared images.
func (s *Service) buildPushItem(ctx context.Context, src supplier.Source, p *models.ProductRow) (commerce.PushItem, error) {
	variants, err := s.store.VariantsOf(p.ID)
	if err != nil {
		return commerce.PushItem{}, supplier.WrapErr(supplier.KindMapping, src.Code, err)
	}
	if len(variants) == 0 {
		return commerce.PushItem{}, supplier.Errf(supplier.KindMapping, src.Code,
			"product %s has no variants to push", p.SupplierRef)
	}

	item := commerce.PushItem{
		Product:      p,
		SKU:          variants[0].SKU,
		SupplierName: src.Name,
		LastSync:     p.LastSync,
	}

	if p.CategoryID != nil {
		if cat, err := s.store.GetCategory(*p.CategoryID); err == nil && cat.RemoteID > 0 {
			item.CategoryRemoteID = cat.RemoteID
		}
	}

	seenColor := map[string]struct{}{}
	seenSize := map[string]struct{}{}
	for _, v := range variants {
		stock, err := s.store.GetStock(v.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return commerce.PushItem{}, supplier.WrapErr(supplier.KindMapping, src.Code, err)
		}
		if stock != nil {
			item.StockQuantity += stock.Quantity
		}

		if v.Color != "" {
			if _, ok := seenColor[v.Color]; !ok {
				seenColor[v.Color] = struct{}{}
				item.Colors = append(item.Colors, v.Color)
			}
		}
		if v.Size != "" {
			if _, ok := seenSize[v.Size]; !ok {
				seenSize[v.Size] = struct{}{}
				item.Sizes = append(item.Sizes, v.Size)
			}
		}
	}

	urls := p.ImageList()
	if p.MainImage != "" && len(urls) == 0 {
		urls = []string{p.MainImage}
	}
	if s.images != nil {
		item.Images = s.images.Process(ctx, p.SupplierRef, p.Name, urls)
	} else {
		for i, u := range urls {
			item.Images = append(item.Images, commerce.Image{Src: u, Alt: p.Name, Position: i})
		}
	}

	return item, nil
}
