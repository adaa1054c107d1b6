package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"

	mapfile "github.com/Consortis-Geospatial/Mapfile-Preview"
	"github.com/Consortis-Geospatial/Mapfile-Preview/internal/config"
)

// maxBody caps request bodies at 1MB
const maxBody = 1 << 20

func main() {
	port := flag.String("port", getEnv("PORT", "8080"), "Port to listen on")
	configPath := flag.String("config", getEnv(config.EnvPath, ""), "Config file (default: ./"+config.FileName+")")
	origin := flag.String("allow-origin", getEnv("ALLOW_ORIGIN", ""), "Origin allowed to call the API from a browser")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	handler := corsHandler(*origin, newMux(*cfg))

	log.Printf("mapfile-server listening on :%s", *port)
	if *origin != "" {
		log.Printf("CORS: allowing %s", *origin)
	}

	if err := http.ListenAndServe(":"+*port, handler); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

func newMux(cfg config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	linter := mapfile.New(cfg)
	mux.HandleFunc("/api/check", checkHandler(linter))
	mux.HandleFunc("/api/balance", balanceHandler(linter))
	mux.HandleFunc("/api/format", formatHandler(cfg))
	mux.HandleFunc("/api/extent", extentHandler(cfg))
	mux.HandleFunc("/api/wfs", wfsHandler(linter))

	return mux
}

// corsHandler lets the editor UI, served from another origin, call the API.
func corsHandler(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type mapfileRequest struct {
	Name    string `json:"name"`
	Mapfile string `json:"mapfile"`
}

func (m *mapfileRequest) source() string { return m.Mapfile }

type formatRequest struct {
	mapfileRequest
	Indent int `json:"indent"`
}

type extentRequest struct {
	mapfileRequest
	BBox         *[4]float64 `json:"bbox"`
	CRS          string      `json:"crs"`
	AddMissing   *bool       `json:"addMissing"`
	UpdateMap    *bool       `json:"updateMap"`
	UpdateLayers *bool       `json:"updateLayers"`
}

// decodeRequest reads a POSTed JSON body into req. It writes the error
// response and reports false when the request is unusable.
func decodeRequest(w http.ResponseWriter, r *http.Request, req interface{ source() string }) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}

	if err := json.Unmarshal(body, req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	if req.source() == "" {
		http.Error(w, `{"error":"mapfile field is required"}`, http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

// checkHandler handles POST /api/check with the syntax and context checks.
func checkHandler(linter *mapfile.Linter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mapfileRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		name := req.Name
		if name == "" {
			name = "input"
		}
		writeJSON(w, linter.Check(name, req.Mapfile))
	}
}

// balanceHandler handles POST /api/balance.
func balanceHandler(linter *mapfile.Linter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mapfileRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeJSON(w, linter.Balance(req.Mapfile))
	}
}

// formatHandler handles POST /api/format; "indent" overrides the configured
// width for one request.
func formatHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formatRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		c := cfg
		if req.Indent > 0 {
			c.IndentWidth = req.Indent
		}
		writeJSON(w, mapfile.New(c).Format(req.Mapfile))
	}
}

// extentHandler handles POST /api/extent. The text is returned unchanged,
// with "updated": false, when no MAP block can be found.
func extentHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extentRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.BBox == nil {
			http.Error(w, `{"error":"bbox field is required"}`, http.StatusBadRequest)
			return
		}

		c := cfg
		if req.AddMissing != nil {
			c.Extent.AddMissing = *req.AddMissing
		}
		if req.UpdateMap != nil {
			c.Extent.UpdateMap = *req.UpdateMap
		}
		if req.UpdateLayers != nil {
			c.Extent.UpdateLayers = *req.UpdateLayers
		}

		bbox := *req.BBox
		viewport := mapfile.Extent{
			MinX: bbox[0],
			MinY: bbox[1],
			MaxX: bbox[2],
			MaxY: bbox[3],
			CRS:  req.CRS,
		}
		res := mapfile.New(c).SyncExtent(req.Mapfile, viewport)
		if !res.Updated {
			log.Printf("extent: nothing updated (%d warnings)", len(res.Warnings))
		}
		writeJSON(w, res)
	}
}

// wfsHandler handles POST /api/wfs.
func wfsHandler(linter *mapfile.Linter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mapfileRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		writeJSON(w, struct {
			Layers []mapfile.Verdict `json:"layers"`
		}{Layers: linter.ClassifyWFS(req.Mapfile)})
	}
}
