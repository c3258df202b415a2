package http

import (
	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/ww1air/frontlines/internal/adapters/geojson"
	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/resample"
)

const contentTypeGeoJSON = "application/geo+json"

// requestedPeriod reads the target of a front line query: either a single
// ?date=YYYY-MM-DD or a ?period= label.
func requestedPeriod(c *fiber.Ctx) (domain.OutputPeriod, error) {
	date, label := c.Query("date"), c.Query("period")
	switch {
	case date != "" && label != "":
		return domain.OutputPeriod{}, fiber.NewError(400, "date and period are mutually exclusive")
	case date != "":
		d, err := domain.ParseDate(date)
		if err != nil {
			return domain.OutputPeriod{}, err
		}
		return domain.SingleDate(date, d), nil
	case label != "":
		return domain.ParsePeriod(label)
	}
	return domain.OutputPeriod{}, fiber.NewError(400, "date or period is required")
}

// render writes f as a GeoJSON Feature, or as plain JSON with ?format=json.
// ?simplify=<degrees> thins the geometry with Douglas-Peucker first.
func render(c *fiber.Ctx, f *domain.InterpolatedFrontline) error {
	tol := c.QueryFloat("simplify", 0)
	if tol < 0 {
		return errBadRequest(c, "simplify must not be negative")
	}
	if tol > 0 {
		simplified := *f
		simplified.Points = resample.Simplify(f.Points, tol)
		f = &simplified
	}

	switch c.Query("format", "geojson") {
	case "geojson":
		data, err := geojsonadapter.Marshal(f)
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, contentTypeGeoJSON)
		return c.Send(data)
	case "json":
		return c.JSON(f)
	default:
		return errBadRequest(c, "format must be geojson or json")
	}
}

// Response headers carrying how a front line was derived.
const (
	headerMethod = "X-Frontline-Method"
	headerDate   = "X-Frontline-Date"
)

func setProvenanceHeaders(c *fiber.Ctx, f *domain.InterpolatedFrontline) {
	c.Set(headerMethod, string(f.Provenance.Method))
	c.Set(headerDate, domain.FormatDate(f.Date))
}

// FrontlineHandler returns the interpolated front line of a theater.
func FrontlineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		theater := c.Params("theater")
		if theater == "" {
			return errBadRequest(c, "theater is required")
		}

		p, err := requestedPeriod(c)
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				return errBadRequest(c, fe.Message)
			}
			return errDomain(c, err)
		}

		f, err := deps.Frontlines.At(c.UserContext(), theater, p)
		if err != nil {
			return errDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		setProvenanceHeaders(c, f)
		return render(c, f)
	}
}

// SnapshotsHandler lists the snapshots of a theater without geometry.
func SnapshotsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snaps, err := deps.Frontlines.Snapshots(c.UserContext(), c.Params("theater"))
		if err != nil {
			return errDomain(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(snaps)
		if offset >= total {
			snaps = []domain.SnapshotSummary{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			snaps = snaps[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: snaps, Pagination: pg})
	}
}

// ArchivedFrontlineHandler returns the last archived build of a period.
func ArchivedFrontlineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period")
		if period == "" {
			return errBadRequest(c, "period is required")
		}

		f, err := deps.Frontlines.Archived(c.UserContext(), c.Params("theater"), period)
		if err != nil {
			return errDomain(c, err)
		}
		if len(f.Points) < 2 {
			return errNotFound(c, "archived front line has no geometry")
		}

		c.Set("Cache-Control", "public, max-age=60")
		setProvenanceHeaders(c, f)
		return render(c, f)
	}
}
