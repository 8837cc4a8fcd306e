package neo4j

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/syssam/nodus/dialect"
	"github.com/syssam/nodus/schema"
)

// sridCartesian3D is the spatial reference the store assigns to
// coordinate triples without a geographic datum.
const sridCartesian3D = 9157

// convertValue maps a record value returned by the driver to the
// dialect-neutral kind the codec consumes.
func convertValue(v any) any {
	switch x := v.(type) {
	case dbtype.Node:
		return convertNode(x)
	case dbtype.Relationship:
		return convertRelationship(x)
	case dbtype.Path:
		return convertPath(x)
	case dbtype.Point3D:
		return schema.Point3D{X: x.X, Y: x.Y, Z: x.Z}
	case dbtype.Date:
		return x.Time()
	case dbtype.LocalTime:
		return x.Time()
	case dbtype.Time:
		return x.Time()
	case dbtype.LocalDateTime:
		return x.Time()
	case dbtype.Duration:
		return durationOf(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertValue(e)
		}
		return out
	case map[string]any:
		return convertProps(x)
	default:
		return v
	}
}

func convertNode(n dbtype.Node) dialect.Node {
	return dialect.Node{
		ElementID: n.ElementId,
		Labels:    n.Labels,
		Props:     convertProps(n.Props),
	}
}

func convertRelationship(r dbtype.Relationship) dialect.Relationship {
	return dialect.Relationship{
		ElementID:      r.ElementId,
		Type:           r.Type,
		StartElementID: r.StartElementId,
		EndElementID:   r.EndElementId,
		Props:          convertProps(r.Props),
	}
}

func convertPath(p dbtype.Path) dialect.Path {
	nodes := make([]dialect.Node, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = convertNode(n)
	}
	rels := make([]dialect.Relationship, len(p.Relationships))
	for i, r := range p.Relationships {
		rels[i] = convertRelationship(r)
	}
	return dialect.Path{Nodes: nodes, Relationships: rels}
}

func convertProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = convertValue(v)
	}
	return out
}

// durationOf flattens a stored duration to time.Duration. Calendar
// months have no fixed length; the 30-day convention matches how the
// store compares durations itself.
func durationOf(d dbtype.Duration) time.Duration {
	days := d.Months*30 + d.Days
	return time.Duration(days*24*3600+d.Seconds)*time.Second + time.Duration(d.Nanos)
}

// convertParams maps outgoing parameter values to the kinds the driver
// serializes: coordinate triples become points and durations become
// the store's calendar-free duration encoding.
func convertParams(params map[string]any) (map[string]any, error) {
	if params == nil {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = convertParam(v)
	}
	return out, nil
}

func convertParam(v any) any {
	switch x := v.(type) {
	case schema.Point3D:
		return dbtype.Point3D{SpatialRefId: sridCartesian3D, X: x.X, Y: x.Y, Z: x.Z}
	case time.Duration:
		return dbtype.Duration{
			Seconds: int64(x / time.Second),
			Nanos:   int(x % time.Second),
		}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertParam(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = convertParam(e)
		}
		return out
	default:
		return v
	}
}
