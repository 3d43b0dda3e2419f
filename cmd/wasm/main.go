//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"syscall/js"

	"github.com/trellislab/trellis/backend-go/internal/engine"
	"github.com/trellislab/trellis/backend-go/internal/export"
	"github.com/trellislab/trellis/backend-go/internal/sketch"
)

var eng *engine.Engine

func main() {
	eng = engine.New()

	// Create the engine API object
	trellisEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	trellisEngine.Set("newSketch", js.FuncOf(newSketch))
	trellisEngine.Set("loadSketch", js.FuncOf(loadSketch))
	trellisEngine.Set("loadSampleSketch", js.FuncOf(loadSampleSketch))
	trellisEngine.Set("addSeed", js.FuncOf(addSeed))
	trellisEngine.Set("moveSeed", js.FuncOf(moveSeed))
	trellisEngine.Set("grow", js.FuncOf(grow))
	trellisEngine.Set("run", js.FuncOf(run))
	trellisEngine.Set("undo", js.FuncOf(undo))
	trellisEngine.Set("redo", js.FuncOf(redo))
	trellisEngine.Set("clear", js.FuncOf(clear))
	trellisEngine.Set("setVisibility", js.FuncOf(setVisibility))
	trellisEngine.Set("setStrokeWidth", js.FuncOf(setStrokeWidth))
	trellisEngine.Set("setExtrusion", js.FuncOf(setExtrusion))

	// --- Queries (frontend ← backend) ---
	trellisEngine.Set("getScene", js.FuncOf(getScene))
	trellisEngine.Set("getSketch", js.FuncOf(getSketch))
	trellisEngine.Set("getInfo", js.FuncOf(getInfo))
	trellisEngine.Set("hitSeed", js.FuncOf(hitSeed))
	trellisEngine.Set("exportSVG", js.FuncOf(exportSVG))
	trellisEngine.Set("exportOBJ", js.FuncOf(exportOBJ))

	// Register on global scope
	js.Global().Set("trellisEngine", trellisEngine)

	// Signal that WASM is ready
	js.Global().Set("trellisWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func opResult(res engine.OpResult) interface{} {
	out := map[string]interface{}{
		"applied":  res.Applied,
		"revision": res.Revision,
	}
	if res.Reason != "" {
		out["reason"] = res.Reason
	}
	return js.ValueOf(out)
}

// --- Command Handlers ---

func newSketch(this js.Value, args []js.Value) interface{} {
	eng = engine.New()
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSketch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing sketch JSON"})
	}

	var sk sketch.Sketch
	if err := json.Unmarshal([]byte(args[0].String()), &sk); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	eng = engine.NewWith(&sk)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleSketch(this js.Value, args []js.Value) interface{} {
	eng = engine.NewWith(sketch.NewSampleSketch())
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func addSeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "addSeed needs x and y"})
	}
	return opResult(eng.AddSeed(args[0].Float(), args[1].Float()))
}

func moveSeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "moveSeed needs index, x and y"})
	}
	return opResult(eng.MoveSeed(args[0].Int(), args[1].Float(), args[2].Float()))
}

func grow(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "grow needs a mode"})
	}
	return opResult(eng.Grow(sketch.GrowthMode(args[0].String())))
}

func run(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "run needs a mode"})
	}
	return opResult(eng.Run(sketch.GrowthMode(args[0].String())))
}

func undo(this js.Value, args []js.Value) interface{} {
	return opResult(eng.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return opResult(eng.Redo())
}

func clear(this js.Value, args []js.Value) interface{} {
	return opResult(eng.Clear())
}

func setVisibility(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "setVisibility needs a kind and a flag"})
	}
	return opResult(eng.SetVisibility(args[0].String(), args[1].Bool()))
}

func setStrokeWidth(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "setStrokeWidth needs a width"})
	}
	return opResult(eng.SetStrokeWidth(args[0].Float()))
}

func setExtrusion(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "setExtrusion needs a policy"})
	}
	return opResult(eng.SetExtrusion(sketch.ExtrusionPolicy(args[0].String())))
}

// --- Query Handlers ---

func getScene(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SceneJSON())
}

func getSketch(this js.Value, args []js.Value) interface{} {
	sk, _ := eng.Snapshot()
	data, err := json.Marshal(sk)
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func getInfo(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Info())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

func hitSeed(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"hit": false, "index": -1})
	}
	index, hit := eng.HitSeed(args[0].Float(), args[1].Float())
	return js.ValueOf(map[string]interface{}{"hit": hit, "index": index})
}

func exportSVG(this js.Value, args []js.Value) interface{} {
	margin := 10.0
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		margin = args[0].Float()
	}

	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, eng.Scene(), margin); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(buf.String())
}

func exportOBJ(this js.Value, args []js.Value) interface{} {
	sk, _ := eng.Snapshot()

	var buf bytes.Buffer
	if err := export.WriteOBJ(&buf, "sketch", sk.LiveFaces()); err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(buf.String())
}
