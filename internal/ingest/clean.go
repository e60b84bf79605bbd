package ingest

import (
	"errors"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cart-monitor/internal/fetcher"
	"github.com/sells-group/cart-monitor/internal/model"
)

var (
	// ErrMissingColumns means a dump lacks a required canonical column.
	ErrMissingColumns = errors.New("ingest: missing required columns")
	// ErrMissingKey means a non-blank row has no business key.
	ErrMissingKey = errors.New("ingest: row without business key")
)

// DefaultSynonyms maps canonical column names to the raw header spellings
// seen in source dumps.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		model.ColCartID: {
			"cart_id", "cartid", "cart", "shopping_cart_id", "shoppingcartid", "order_id", "orderid",
			"Cart Number", "Shopping Cart",
		},
		model.ColTower:     {"tower", "category", "product_tower", "cart_tower", "Service Tower"},
		model.ColStatus:    {"status", "cart_status", "shopping_cart_status"},
		model.ColSubstatus: {"substatus", "sub_status", "cart_substatus", "shopping_cart_substatus", "sub-state", "substate"},
		model.ColCreatedAt: {"created_at", "created", "creation_date", "createddate", "created_on", "createdon"},
		model.ColUpdatedAt: {"updated_at", "updated", "last_updated", "lastupdate", "modified_at", "modified", "changed_at"},
		model.ColTotalValue: {
			"total_value", "total", "total_amount", "amount_total", "cart_total", "totalprice",
			"Shopping Cart Total", "Total cost",
		},
		model.ColCurrency: {"currency", "curr", "Local Currency"},
		model.ColPONumber: {
			"po_number", "po", "purchase_order", "purchase_order_number", "ponumber",
			"Purchase Order Number", "PO Number",
		},
		model.ColPOPDFSent: {"po_pdf_sent", "pdf_sent", "po_copy_sent", "po_document_sent"},
	}
}

// DefaultRequired returns the canonical columns each source must carry.
// Source B dumps may omit status columns.
func DefaultRequired() map[model.Source][]string {
	return map[model.Source][]string{
		model.SourceA: {model.ColCartID, model.ColStatus, model.ColSubstatus, model.ColUpdatedAt},
		model.SourceB: {model.ColCartID, model.ColUpdatedAt},
	}
}

// Schema resolves raw headers to canonical columns.
type Schema struct {
	reverse  map[string]string
	required map[model.Source][]string
}

// NewSchema builds a schema from a synonym table and per-source required
// columns. Canonical names always resolve to themselves.
func NewSchema(synonyms map[string][]string, required map[model.Source][]string) *Schema {
	s := &Schema{reverse: make(map[string]string), required: required}
	for canonical, raws := range synonyms {
		s.reverse[normalizeHeader(canonical)] = canonical
		for _, raw := range raws {
			s.reverse[normalizeHeader(raw)] = canonical
		}
	}
	return s
}

// Resolve maps a header row to canonical column indexes. The first raw
// column resolving to a canonical name wins; unknown columns are dropped.
func (s *Schema) Resolve(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		canonical, ok := s.reverse[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, dup := idx[canonical]; dup {
			continue
		}
		idx[canonical] = i
	}
	return idx
}

// Clean converts a raw dump into a normalized record set. A missing required
// column or a row without a key fails the whole file; nothing is partially
// ingested.
func (s *Schema) Clean(tbl *fetcher.Table, src model.Source, date, fileName string) (*model.RecordSet, error) {
	idx := s.Resolve(tbl.Header)

	var missing []string
	for _, col := range s.required[src] {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		available := make([]string, 0, len(idx))
		for col := range idx {
			available = append(available, col)
		}
		sort.Strings(available)
		return nil, eris.Wrapf(ErrMissingColumns, "source %s file %s: missing %s (resolved: %s)",
			src, fileName, strings.Join(missing, ","), strings.Join(available, ","))
	}

	columns := make(map[string]bool, len(idx))
	for col := range idx {
		columns[col] = true
	}

	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(fetcher.Cell(row, i))
	}

	rs := &model.RecordSet{Source: src, Date: date, Columns: columns}
	for n, row := range tbl.Rows {
		if fetcher.BlankRow(row) {
			continue
		}
		key := cleanKey(get(row, model.ColCartID))
		if key == "" {
			return nil, eris.Wrapf(ErrMissingKey, "source %s file %s: data row %d", src, fileName, n+1)
		}
		rs.Records = append(rs.Records, model.SourceRecord{
			CartID:     key,
			Tower:      get(row, model.ColTower),
			Status:     get(row, model.ColStatus),
			Substatus:  get(row, model.ColSubstatus),
			CreatedAt:  ParseTimestamp(get(row, model.ColCreatedAt)),
			UpdatedAt:  ParseTimestamp(get(row, model.ColUpdatedAt)),
			TotalValue: model.ParseAmount(get(row, model.ColTotalValue)),
			Currency:   get(row, model.ColCurrency),
			PONumber:   get(row, model.ColPONumber),
			POPDFSent:  get(row, model.ColPOPDFSent),
			Source:     src,
			SourceFile: fileName,
			FileDate:   date,
		})
	}
	return rs, nil
}
