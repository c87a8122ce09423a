package normalize

import "github.com/aawaaz/grievance-portal/internal/models"

// Analytics normalizes the analytics summary payload
func (n *Normalizer) Analytics(v any) models.Analytics {
	r := asRaw(v)
	return models.Analytics{
		TotalComplaints:       r.num(at("totalComplaints"), at("total")),
		StatusCounts:          r.counts("status", at("statusCounts"), at("byStatus")),
		CategoryCounts:        r.counts("category", at("categoryCounts"), at("byCategory")),
		ResolutionRate:        r.num(at("resolutionRate")),
		AverageResolutionTime: r.num(at("averageResolutionTime")),
	}
}

// counts reads the first present count table in paths. A table is either a
// mapping of key to count, or an array of {<key>|_id, count} rows folded in
// order so that later rows overwrite earlier ones.
func (r Raw) counts(key string, paths ...path) map[string]float64 {
	for _, p := range paths {
		v, ok := r.get(p)
		if !ok {
			continue
		}
		switch table := v.(type) {
		case map[string]any:
			out := make(map[string]float64, len(table))
			for k, c := range table {
				f, _ := number(c)
				out[k] = f
			}
			return out
		case []any:
			out := make(map[string]float64, len(table))
			for _, item := range table {
				row := asRaw(item)
				k := row.str(at(key), at("_id"))
				if k == "" {
					continue
				}
				out[k] = row.num(at("count"))
			}
			return out
		}
	}
	return map[string]float64{}
}
