package router

import (
	"net/http"
	"strconv"
	"strings"
)

// OpenAPI builds an OpenAPI 3 document for every named route.
func (r *Router) OpenAPI(title, version string) map[string]interface{} {
	paths := make(map[string]interface{})

	for _, ri := range r.Routes() {
		op := map[string]interface{}{
			"operationId": ri.Name,
			"responses":   responses(ri.Doc.Responses),
		}
		if ri.Doc.Summary != "" {
			op["summary"] = ri.Doc.Summary
		}
		if params := pathParams(ri); len(params) > 0 {
			op["parameters"] = params
		}

		item, _ := paths[ri.Path].(map[string]interface{})
		if item == nil {
			item = make(map[string]interface{})
			paths[ri.Path] = item
		}
		item[strings.ToLower(ri.Method)] = op
	}

	return map[string]interface{}{
		"openapi": "3.0.1",
		"info": map[string]interface{}{
			"title":   title,
			"version": version,
		},
		"paths": paths,
	}
}

func pathParams(ri RouteInfo) []map[string]interface{} {
	var out []map[string]interface{}
	for _, seg := range strings.Split(ri.Path, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.Trim(seg, "{}")
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		typ := ri.Doc.Params[name]
		if typ == "" {
			typ = "string"
		}
		out = append(out, map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]interface{}{"type": typ},
		})
	}
	return out
}

func responses(docs map[int]string) map[string]interface{} {
	if len(docs) == 0 {
		return map[string]interface{}{
			"200": map[string]interface{}{"description": http.StatusText(http.StatusOK)},
		}
	}
	out := make(map[string]interface{}, len(docs))
	for code, desc := range docs {
		out[strconv.Itoa(code)] = map[string]interface{}{"description": desc}
	}
	return out
}
