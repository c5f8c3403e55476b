// HTTP handlers for the emulator control plane
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"arduino-emulator/pkg/emulator"
	"arduino-emulator/pkg/errors"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK"))
}

// Lifecycle

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.sched.Start(); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Simulation started")
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.stopTimeout)
	defer cancel()
	if err := s.sched.Stop(ctx); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Simulation stopped")
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.stopTimeout)
	defer cancel()
	if err := s.sched.Reset(ctx); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, "Simulation reset")
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tick": s.sched.Status().Tick})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Status())
}

// Board and pins

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.emu.Board().Info())
}

func (s *Server) pinMap() map[string]emulator.PinState {
	states := s.emu.PinStates()
	out := make(map[string]emulator.PinState, len(states))
	for i, st := range states {
		out[itoa(i)] = st
	}
	return out
}

func (s *Server) handlePins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pins": s.pinMap()})
}

// pinRequest is the body of the three pin-stimulus commands. Both fields
// are required.
type pinRequest struct {
	Pin   *int `json:"pin"`
	Value *int `json:"value"`
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.RequestParseError(err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.RequestParseError(err)
	}
	return nil
}

func decodePin(r *http.Request) (pin, value int, err error) {
	var req pinRequest
	if err = decode(r, &req); err != nil {
		return
	}
	if req.Pin == nil {
		return 0, 0, errors.RequestFieldError("pin")
	}
	if req.Value == nil {
		return 0, 0, errors.RequestFieldError("value")
	}
	return *req.Pin, *req.Value, nil
}

func (s *Server) handlePinSet(w http.ResponseWriter, r *http.Request) {
	pin, value, err := decodePin(r)
	if err == nil {
		err = s.emu.SetPin(pin, value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if value == -1 {
		writeSuccess(w, fmt.Sprintf("Pin %d toggled", pin))
		return
	}
	writeSuccess(w, fmt.Sprintf("Pin %d set to %d", pin, value))
}

func (s *Server) handlePWMSet(w http.ResponseWriter, r *http.Request) {
	pin, value, err := decodePin(r)
	if err == nil {
		err = s.emu.SetPWM(pin, value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, fmt.Sprintf("PWM on pin %d set to %d", pin, value))
}

func (s *Server) handleAnalogSet(w http.ResponseWriter, r *http.Request) {
	ch, value, err := decodePin(r)
	if err == nil {
		err = s.emu.SetAnalog(ch, value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, fmt.Sprintf("Analog A%d set to %d", ch, value))
}

// Serial, debug and peripherals

func (s *Server) handleSerialOutput(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"output": s.emu.SerialOutput()})
}

func (s *Server) handleSerialInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data *string `json:"data"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Data == nil {
		writeError(w, errors.RequestFieldError("data"))
		return
	}
	s.emu.SerialInput([]byte(*req.Data + "\n"))
	writeSuccess(w, "Data sent to Serial")
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"messages": s.debug.Drain()})
}

func (s *Server) handleSPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.emu.SPIState())
}

func (s *Server) handleTone(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.emu.ToneState())
}
