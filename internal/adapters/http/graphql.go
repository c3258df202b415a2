package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/ww1air/frontlines/internal/core/domain"
	"github.com/ww1air/frontlines/internal/core/resample"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Snapshot",
		Fields: graphql.Fields{
			"date":     &graphql.Field{Type: graphql.String},
			"source":   &graphql.Field{Type: graphql.String},
			"points":   &graphql.Field{Type: graphql.Int},
			"warnings": &graphql.Field{Type: graphql.Int},
			"bounds":   &graphql.Field{Type: boundsType},
		},
	})

	frontlineType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frontline",
		Fields: graphql.Fields{
			"theater":      &graphql.Field{Type: graphql.String},
			"period":       &graphql.Field{Type: graphql.String},
			"date":         &graphql.Field{Type: graphql.String},
			"method":       &graphql.Field{Type: graphql.String},
			"fraction":     &graphql.Field{Type: graphql.Float},
			"source_dates": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"sources":      &graphql.Field{Type: graphql.NewList(graphql.String)},
			"points":       &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"frontline": &graphql.Field{
				Type:        frontlineType,
				Description: "Front line of a theater for a date or period label",
				Args: graphql.FieldConfigArgument{
					"theater":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"date":     &graphql.ArgumentConfig{Type: graphql.String},
					"period":   &graphql.ArgumentConfig{Type: graphql.String},
					"simplify": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					theater := p.Args["theater"].(string)
					date, _ := p.Args["date"].(string)
					label, _ := p.Args["period"].(string)

					var period domain.OutputPeriod
					switch {
					case date != "" && label != "":
						return nil, fmt.Errorf("date and period are mutually exclusive")
					case date != "":
						d, err := domain.ParseDate(date)
						if err != nil {
							return nil, err
						}
						period = domain.SingleDate(date, d)
					case label != "":
						var err error
						if period, err = domain.ParsePeriod(label); err != nil {
							return nil, err
						}
					default:
						return nil, fmt.Errorf("date or period is required")
					}

					f, err := deps.Frontlines.At(p.Context, theater, period)
					if err != nil {
						return nil, err
					}
					points := f.Points
					if tol, _ := p.Args["simplify"].(float64); tol > 0 {
						points = resample.Simplify(points, tol)
					}
					return frontlineMap(f, points), nil
				},
			},
			"snapshots": &graphql.Field{
				Type:        graphql.NewList(snapshotType),
				Description: "Snapshots of a theater in date order",
				Args: graphql.FieldConfigArgument{
					"theater": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					snaps, err := deps.Frontlines.Snapshots(p.Context, p.Args["theater"].(string))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(snaps))
					for i, s := range snaps {
						out[i] = map[string]interface{}{
							"date":     s.Date,
							"source":   s.Source,
							"points":   s.Points,
							"warnings": s.Warnings,
							"bounds": map[string]interface{}{
								"min_lat": s.Bounds.MinLat,
								"min_lon": s.Bounds.MinLon,
								"max_lat": s.Bounds.MaxLat,
								"max_lon": s.Bounds.MaxLon,
							},
						}
					}
					return out, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// frontlineMap converts f for the default resolvers, which match map keys.
func frontlineMap(f *domain.InterpolatedFrontline, points []domain.GeoPoint) map[string]interface{} {
	pts := make([]map[string]interface{}, len(points))
	for i, pt := range points {
		pts[i] = map[string]interface{}{"lat": pt.Lat, "lon": pt.Lon}
	}
	dates := make([]string, len(f.Provenance.SourceDates))
	for i, d := range f.Provenance.SourceDates {
		dates[i] = domain.FormatDate(d)
	}
	return map[string]interface{}{
		"theater":      f.Theater,
		"period":       f.Period,
		"date":         domain.FormatDate(f.Date),
		"method":       string(f.Provenance.Method),
		"fraction":     f.Provenance.Fraction,
		"source_dates": dates,
		"sources":      f.Provenance.Sources,
		"points":       pts,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
