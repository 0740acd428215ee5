package main

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"swarmpay/crypto"
	"swarmpay/observability"
)

// mountInspection exposes read-only lookups over the settlement state for
// operators and indexers. Writes go through the host ledger, never HTTP.
func mountInspection(router chi.Router, engines *Engines) {
	router.Route("/v1", func(r chi.Router) {
		r.Get("/collections/{id}", func(w http.ResponseWriter, req *http.Request) {
			done := track("collection_lookup")
			col, ok, err := engines.Collections.Get(chi.URLParam(req, "id"))
			done(err)
			writeLookup(w, col, ok, err)
		})
		r.Get("/escrows/{purchaser}/{collection}", func(w http.ResponseWriter, req *http.Request) {
			done := track("escrow_lookup")
			purchaser, perr := parseAddress(chi.URLParam(req, "purchaser"))
			if perr != nil {
				done(perr)
				http.Error(w, perr.Error(), http.StatusBadRequest)
				return
			}
			esc, ok, err := engines.Access.Get(purchaser, chi.URLParam(req, "collection"))
			done(err)
			writeLookup(w, esc, ok, err)
		})
		r.Get("/trust/{peer}", func(w http.ResponseWriter, req *http.Request) {
			done := track("trust_lookup")
			peer, perr := parseAddress(chi.URLParam(req, "peer"))
			if perr != nil {
				done(perr)
				http.Error(w, perr.Error(), http.StatusBadRequest)
				return
			}
			state, ok, err := engines.Trust.Get(peer)
			done(err)
			writeLookup(w, state, ok, err)
		})
		r.Get("/tickets/{id}", func(w http.ResponseWriter, req *http.Request) {
			done := track("ticket_lookup")
			ticket, ok, err := engines.Moderation.GetTicket(chi.URLParam(req, "id"))
			done(err)
			writeLookup(w, ticket, ok, err)
		})
	})
}

// track times one inspection operation; call the returned func with the
// outcome error.
func track(op string) func(error) {
	start := time.Now()
	return func(err error) {
		observability.EngineMetrics().Observe("inspect", op, err, time.Since(start))
	}
}

// parseAddress accepts both bech32 (swp1...) and raw hex addresses.
func parseAddress(raw string) ([20]byte, error) {
	var out [20]byte
	if strings.HasPrefix(raw, crypto.AddressHRP+"1") {
		addr, err := crypto.DecodeAddress(raw)
		if err != nil {
			return out, err
		}
		return addr.Bytes(), nil
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return out, err
	}
	if len(decoded) != len(out) {
		return out, hex.ErrLength
	}
	copy(out[:], decoded)
	return out, nil
}

func writeLookup(w http.ResponseWriter, value interface{}, ok bool, err error) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
