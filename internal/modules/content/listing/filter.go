package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/devicelink/core/internal/models"
	"gorm.io/gorm"
)

// Filter narrows a listing query. The zero value matches every non-deleted listing.
type Filter struct {
	OwnUsername  string
	ExcludeOwner string
	PublicOnly   bool
	Query        string
	Category     models.Category
	Condition    models.Condition
	MinQuantity  *int
	MaxQuantity  *int
}

// ParseFilter reads the GET /listings query parameters.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		OwnUsername:  strings.TrimSpace(q.Get("own_username")),
		ExcludeOwner: strings.TrimSpace(q.Get("exclude_owner")),
		Query:        strings.TrimSpace(q.Get("q")),
	}

	if v := q.Get("approved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: approved must be true or false", errInvalidFilter)
		}
		f.PublicOnly = b
	}
	if v := q.Get("category"); v != "" {
		f.Category = models.Category(v)
		if !f.Category.Valid() {
			return Filter{}, fmt.Errorf("%w: unknown category %q", errInvalidFilter, v)
		}
	}
	if v := q.Get("condition"); v != "" {
		f.Condition = models.Condition(v)
		if !f.Condition.Valid() {
			return Filter{}, fmt.Errorf("%w: unknown condition %q", errInvalidFilter, v)
		}
	}

	var err error
	if f.MinQuantity, err = parseQuantity(q, "min_quantity"); err != nil {
		return Filter{}, err
	}
	if f.MaxQuantity, err = parseQuantity(q, "max_quantity"); err != nil {
		return Filter{}, err
	}
	if f.MinQuantity != nil && f.MaxQuantity != nil && *f.MinQuantity > *f.MaxQuantity {
		return Filter{}, fmt.Errorf("%w: min_quantity exceeds max_quantity", errInvalidFilter)
	}
	return f, nil
}

func parseQuantity(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidFilter, key)
	}
	return &n, nil
}

// Apply adds the filter's conditions to db. Deleted listings never match.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	q := db.Where("status <> ?", models.ListingDeleted)
	if f.OwnUsername != "" {
		q = q.Where("owner = ?", f.OwnUsername)
	}
	if f.ExcludeOwner != "" {
		q = q.Where("owner <> ?", f.ExcludeOwner)
	}
	if f.PublicOnly {
		q = q.Where("status = ? AND moderation = ?", models.ListingActive, models.ModerationApproved)
	}
	if f.Query != "" {
		like := "%" + escapeLike(strings.ToLower(f.Query)) + "%"
		q = q.Where("search_text LIKE ? ESCAPE '!'", like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Condition != "" {
		q = q.Where("device_condition = ?", f.Condition)
	}
	if f.MinQuantity != nil {
		q = q.Where("quantity >= ?", *f.MinQuantity)
	}
	if f.MaxQuantity != nil {
		q = q.Where("quantity <= ?", *f.MaxQuantity)
	}
	return q.Order("created_at DESC, id DESC")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
