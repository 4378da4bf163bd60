package host

import (
	"encoding/json"
	"fmt"

	"github.com/oxleaf/parlour/internal/puzzle"
	"github.com/oxleaf/parlour/internal/wire"
)

func (h *Host) handleRequest(req *wire.Request) error {
	if req.Method == wire.MethodCreate {
		return h.handleCreate(req)
	}
	if h.backend == nil {
		return h.respondErr(req.ID, "no session created")
	}

	switch req.Method {
	case wire.MethodNewGame:
		h.backend.NewGame()
		h.notifyGameState()
		return h.respond(req.ID, struct{}{})

	case wire.MethodRestartGame:
		h.backend.RestartGame()
		h.notifyGameState()
		return h.respond(req.ID, struct{}{})

	case wire.MethodNewGameFromID:
		var p wire.IDParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		errstr := h.backend.SetGameID(p.ID)
		if errstr == "" {
			// Applying the id may have rewritten the pending params; the
			// backend's hook has already notified that. Start the game.
			h.backend.NewGame()
			h.notifyGameState()
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: errstr})

	case wire.MethodUndo:
		if h.backend.Undo() {
			h.notifyGameState()
		}
		return h.respond(req.ID, struct{}{})

	case wire.MethodRedo:
		if h.backend.Redo() {
			h.notifyGameState()
		}
		return h.respond(req.ID, struct{}{})

	case wire.MethodSolve:
		errstr := h.backend.Solve()
		if errstr == "" {
			h.notifyGameState()
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: errstr})

	case wire.MethodGetParams:
		return h.respond(req.ID, wire.ParamsResult{Params: h.backend.Params()})

	case wire.MethodSetParams:
		var p wire.EncodedParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: h.backend.SetParams(p.Params)})

	case wire.MethodGetPresets:
		return h.respond(req.ID, wire.PresetsResult{Presets: h.backend.Presets()})

	case wire.MethodCustomConfig:
		return h.respond(req.ID, wire.ConfigResult{Config: h.backend.CustomConfig()})

	case wire.MethodCustomParams:
		return h.respond(req.ID, wire.ValuesResult{Values: h.backend.CustomValues()})

	case wire.MethodSetCustom:
		var p wire.ValuesParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: h.backend.SetCustomValues(p.Values)})

	case wire.MethodPrefsConfig:
		return h.respond(req.ID, wire.ConfigResult{Config: h.backend.PrefsConfig()})

	case wire.MethodGetPrefs:
		return h.respond(req.ID, wire.ValuesResult{Values: h.backend.Prefs()})

	case wire.MethodSetPrefs:
		var p wire.ValuesParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: h.backend.SetPrefs(p.Values)})

	case wire.MethodSavePrefs:
		return h.respond(req.ID, wire.BytesResult{Data: h.backend.MarshalPrefs()})

	case wire.MethodLoadPrefs:
		var p wire.BytesParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: h.backend.UnmarshalPrefs(p.Data)})

	case wire.MethodProcessKey:
		var p wire.KeyParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, h.processInput(0, 0, p.Code))

	case wire.MethodProcessMouse:
		var p wire.MouseParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		return h.respond(req.ID, h.processInput(p.Point.X, p.Point.Y, p.Button))

	case wire.MethodSaveGame:
		return h.respond(req.ID, wire.BytesResult{Data: h.backend.Serialize()})

	case wire.MethodLoadGame:
		var p wire.BytesParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		errstr := h.backend.Deserialize(p.Data)
		if errstr == "" {
			// Identity and params hooks have fired inside Deserialize.
			h.notifyGameState()
		}
		return h.respond(req.ID, wire.ErrStringResult{Err: errstr})

	case wire.MethodSize:
		var p wire.SizeParams
		if err := unmarshal(req, &p); err != nil {
			return h.respondErr(req.ID, err.Error())
		}
		w, ht := h.backend.Size(p.MaxSize.W, p.MaxSize.H, p.IsUserSize, p.DPR)
		return h.respond(req.ID, wire.SizeResult{Size: puzzle.Size{W: w, H: ht}})

	case wire.MethodRedraw:
		h.drawMu.Lock()
		d := h.drawer
		h.drawMu.Unlock()
		if d != nil {
			h.backend.Redraw(d)
		}
		return h.respond(req.ID, struct{}{})

	case wire.MethodRequestKeys:
		return h.respond(req.ID, wire.KeysResult{Keys: h.backend.RequestKeys()})

	case wire.MethodExit:
		if err := h.respond(req.ID, struct{}{}); err != nil {
			return err
		}
		return errExit

	default:
		return h.respondErr(req.ID, fmt.Sprintf("unknown method %q", req.Method))
	}
}

// handleCreate instantiates the backend and flushes any notifications its
// construction raised, in order, after the create response.
func (h *Host) handleCreate(req *wire.Request) error {
	if h.backend != nil {
		return h.respondErr(req.ID, "session already created")
	}

	var p wire.CreateParams
	if err := unmarshal(req, &p); err != nil {
		return h.respondErr(req.ID, err.Error())
	}

	backend, err := h.registry.New(p.PuzzleID, h.hooks())
	if err != nil {
		// Fatal for the session; the caller discards the worker.
		if rerr := h.respondErr(req.ID, err.Error()); rerr != nil {
			return rerr
		}
		return fmt.Errorf("create: %w", err)
	}
	h.backend = backend
	h.meta = backend.Meta()

	// Replay hooks that fired while the factory ran; they land in the
	// pre-create buffer.
	for _, fn := range h.pendingHooks {
		fn()
	}
	h.pendingHooks = nil

	if err := h.respond(req.ID, wire.CreateResult{Meta: h.meta}); err != nil {
		return err
	}

	h.created = true
	for _, push := range h.buffered {
		if err := h.out.Write(push); err != nil {
			return fmt.Errorf("flush buffered push: %w", err)
		}
	}
	h.buffered = nil
	return nil
}

// processInput runs one input event through the backend, suppressing
// state-change notifications for mouse drags so a drag gesture does not
// flood the session with intermediate states.
func (h *Host) processInput(x, y, button int) wire.UsedResult {
	// Soft undo/redo buttons route to the history, not the backend's key
	// handler.
	switch button {
	case puzzle.BtnUndo:
		if h.backend.Undo() {
			h.notifyGameState()
		}
		return wire.UsedResult{Used: true}
	case puzzle.BtnRedo:
		if h.backend.Redo() {
			h.notifyGameState()
		}
		return wire.UsedResult{Used: true}
	}

	result := h.backend.ProcessKey(x, y, button)
	if result == puzzle.KeySomeEffect && !puzzle.IsMouseDrag(button) {
		h.notifyGameState()
	}
	return wire.UsedResult{Used: result != puzzle.KeyUnused}
}

func unmarshal(req *wire.Request, v any) error {
	if err := json.Unmarshal(req.Params, v); err != nil {
		return fmt.Errorf("bad %s params: %w", req.Method, err)
	}
	return nil
}
