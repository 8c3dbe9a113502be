// Package mapping translates validated sheet rows into backend product
// records, resolving human-readable names to catalog ids.
package mapping

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"product-sheets-service/internal/models"
	"product-sheets-service/internal/validation"
)

// Mapper resolves rows against one snapshot of reference data
type Mapper struct {
	ref      *models.ReferenceData
	schema   models.Schema
	validate *validator.Validate

	typeCache     map[string]models.ProductType
	categoryCache map[string]models.Category
	mutex         sync.RWMutex
}

// Option configures a Mapper
type Option func(*Mapper)

// WithValidator replaces the struct validator.
func WithValidator(v *validator.Validate) Option {
	return func(m *Mapper) { m.validate = v }
}

func NewMapper(ref *models.ReferenceData, opts ...Option) *Mapper {
	if ref == nil {
		ref = &models.ReferenceData{}
	}
	m := &Mapper{
		ref:           ref,
		schema:        models.ProductSchema(ref),
		validate:      NewValidator(),
		typeCache:     make(map[string]models.ProductType),
		categoryCache: make(map[string]models.Category),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewValidator returns a struct validator that reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Schema returns the product columns the mapper reads.
func (m *Mapper) Schema() models.Schema {
	return m.schema
}

// MapAll maps every record, splitting successes from row errors.
func (m *Mapper) MapAll(records []models.RowRecord) ([]models.MappedProduct, []models.MappingError) {
	var (
		mapped []models.MappedProduct
		failed []models.MappingError
	)
	for _, rec := range records {
		p, mErr := m.Map(rec)
		if mErr != nil {
			failed = append(failed, *mErr)
			continue
		}
		mapped = append(mapped, *p)
	}
	return mapped, failed
}

// Map translates one record. Every problem of the row is reported in a
// single MappingError.
func (m *Mapper) Map(rec models.RowRecord) (*models.MappedProduct, *models.MappingError) {
	var problems []string
	fail := func(msg string) { problems = append(problems, msg) }

	p := &models.MappedProduct{
		Row:              rec.Row,
		Name:             rec.Text(models.KeyName),
		SKU:              rec.Text(models.KeySKU),
		ShortDescription: rec.Text(models.KeyShortDescription),
		Description:      rec.Text(models.KeyDescription),
		IsActive:         true,
	}
	if p.Name == "" {
		fail(validation.RequiredMessage(m.header(models.KeyName)))
	}

	p.Slug = Slugify(rec.Text(models.KeySlug))
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}

	var productType models.ProductType
	typeName := rec.Text(models.KeyProductType)
	switch t, ok := m.resolveType(typeName); {
	case typeName == "":
		fail(validation.RequiredMessage(m.header(models.KeyProductType)))
	case !ok:
		fail("Loại sản phẩm không hợp lệ: " + typeName)
	default:
		productType = t
		p.ProductTypeID = t.ID
	}

	for _, name := range splitList(rec.Text(models.KeyCategories)) {
		c, ok := m.resolveCategory(name)
		if !ok {
			fail("Danh mục không tồn tại: " + name)
			continue
		}
		p.CategoryIDs = appendUnique(p.CategoryIDs, c.ID)
	}

	if v, ok := rec.Get(models.KeyPrice); !ok {
		fail(validation.RequiredMessage(m.header(models.KeyPrice)))
	} else if f, ok := v.Float(); !ok {
		fail(validation.NumberMessage(m.header(models.KeyPrice)))
	} else if f < 0 {
		fail(m.header(models.KeyPrice) + " không được âm")
	} else {
		p.Price = f
	}

	if v, ok := rec.Get(models.KeySalePrice); ok {
		f, ok := v.Float()
		switch {
		case !ok:
			fail(validation.NumberMessage(m.header(models.KeySalePrice)))
		case f < 0:
			fail(m.header(models.KeySalePrice) + " không được âm")
		case f > p.Price && p.Price > 0:
			fail(m.header(models.KeySalePrice) + " không được lớn hơn " + m.header(models.KeyPrice))
		default:
			p.SalePrice = &f
		}
	}

	if v, ok := rec.Get(models.KeyStock); ok {
		f, ok := v.Float()
		if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
			fail(m.header(models.KeyStock) + " phải là số nguyên không âm")
		} else {
			stock := int(f)
			p.Stock = &stock
		}
	}

	if v, ok := rec.Get(models.KeyActive); ok {
		active, ok := parseActive(v)
		if !ok {
			fail(fmt.Sprintf("%s phải là %s hoặc %s", m.header(models.KeyActive), models.BoolTrueLabel, models.BoolFalseLabel))
		} else {
			p.IsActive = active
		}
	}

	for _, key := range rec.Keys() {
		slug, isAttr := models.AttributeSlug(key)
		if !isAttr || p.ProductTypeID == "" {
			continue
		}
		v, _ := rec.Get(key)
		av, msg := m.mapAttribute(productType, slug, v)
		if msg != "" {
			fail(msg)
			continue
		}
		p.Attributes = append(p.Attributes, av)
	}

	if len(problems) == 0 {
		if err := m.validate.Struct(p); err != nil {
			problems = append(problems, describeValidation(err)...)
		}
	}

	if len(problems) > 0 {
		return nil, &models.MappingError{Row: rec.Row, Name: p.Name, Message: strings.Join(problems, "; ")}
	}
	return p, nil
}

func (m *Mapper) mapAttribute(t models.ProductType, slug string, v models.Value) (models.AttributeValue, string) {
	attr, ok := m.ref.AttributeForType(t.ID, slug)
	if !ok {
		label := slug
		if col, found := m.schema.ByKey(models.AttributeKey(slug)); found {
			label = col.Header
		}
		return models.AttributeValue{}, fmt.Sprintf("Thuộc tính %s không áp dụng cho loại %s", label, t.Name)
	}
	av := models.AttributeValue{AttributeID: attr.ID, Slug: attr.Slug}
	raw := strings.TrimSpace(v.String())

	switch {
	case attr.IsSelect():
		values := []string{raw}
		if attr.FilterType == models.FilterMultiSelect {
			values = splitList(raw)
		}
		for _, val := range values {
			if len(attr.Values) == 0 {
				av.Values = append(av.Values, val)
				continue
			}
			canonical, ok := attr.HasValue(val)
			if !ok {
				return av, fmt.Sprintf("%s có giá trị không hợp lệ: %s", attr.Name, val)
			}
			av.Values = appendUnique(av.Values, canonical)
		}
	case attr.FilterType == models.FilterRange:
		f, ok := v.Float()
		if !ok {
			return av, validation.NumberMessage(attr.Name)
		}
		if (attr.Min != nil && f < *attr.Min) || (attr.Max != nil && f > *attr.Max) {
			return av, fmt.Sprintf("%s phải nằm trong khoảng %s - %s", attr.Name, formatBound(attr.Min), formatBound(attr.Max))
		}
		av.Values = []string{strconv.FormatFloat(f, 'f', -1, 64)}
	default:
		av.Values = []string{raw}
	}
	return av, ""
}

func (m *Mapper) resolveType(name string) (models.ProductType, bool) {
	if name == "" {
		return models.ProductType{}, false
	}
	cacheKey := strings.ToLower(name)

	m.mutex.RLock()
	if cached, ok := m.typeCache[cacheKey]; ok {
		m.mutex.RUnlock()
		return cached, true
	}
	m.mutex.RUnlock()

	t, ok := m.ref.TypeByName(name)
	if !ok {
		return t, false
	}

	m.mutex.Lock()
	m.typeCache[cacheKey] = t
	m.mutex.Unlock()
	return t, true
}

func (m *Mapper) resolveCategory(name string) (models.Category, bool) {
	cacheKey := strings.ToLower(name)

	m.mutex.RLock()
	if cached, ok := m.categoryCache[cacheKey]; ok {
		m.mutex.RUnlock()
		return cached, true
	}
	m.mutex.RUnlock()

	c, ok := m.ref.CategoryByName(name)
	if !ok {
		return c, false
	}

	m.mutex.Lock()
	m.categoryCache[cacheKey] = c
	m.mutex.Unlock()
	return c, true
}

func (m *Mapper) header(key string) string {
	if col, ok := m.schema.ByKey(key); ok {
		return col.Header
	}
	return key
}

func describeValidation(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{"Dữ liệu không hợp lệ: " + err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "min":
			msgs = append(msgs, fmt.Sprintf("Trường %s là bắt buộc", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("Trường %s vượt quá %s ký tự", fe.Field(), fe.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("Trường %s không được âm", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("Trường %s không hợp lệ (%s)", fe.Field(), fe.Tag()))
		}
	}
	return msgs
}

func parseActive(v models.Value) (bool, bool) {
	switch v.Kind {
	case models.KindBool:
		return v.Bool, true
	case models.KindNumber:
		if v.Number == 0 || v.Number == 1 {
			return v.Number == 1, true
		}
		return false, false
	}
	return models.ParseBool(v.Text)
}

// splitList splits a comma or semicolon separated cell.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func formatBound(f *float64) string {
	if f == nil {
		return "?"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
