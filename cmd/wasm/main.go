//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/wellschematic/wellschematic/internal/engine"
	"github.com/wellschematic/wellschematic/internal/schema"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine()

	// Create the engine API object
	wellEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	wellEngine.Set("loadDocument", js.FuncOf(loadDocument))
	wellEngine.Set("loadYAML", js.FuncOf(loadYAML))
	wellEngine.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	wellEngine.Set("setMode", js.FuncOf(setMode))
	wellEngine.Set("setWhich", js.FuncOf(setWhich))
	wellEngine.Set("setAsOf", js.FuncOf(setAsOf))
	wellEngine.Set("setLimits", js.FuncOf(setLimits))

	// --- Queries (frontend ← backend) ---
	wellEngine.Set("render", js.FuncOf(render))
	wellEngine.Set("hitTest", js.FuncOf(hitTest))
	wellEngine.Set("hitTestPixel", js.FuncOf(hitTestPixel))
	wellEngine.Set("getComponentBounds", js.FuncOf(getComponentBounds))
	wellEngine.Set("getViewMatrix", js.FuncOf(getViewMatrix))
	wellEngine.Set("getView", js.FuncOf(getView))
	wellEngine.Set("getDocument", js.FuncOf(getDocument))

	// Register on global scope
	js.Global().Set("wellEngine", wellEngine)

	// Signal that WASM is ready
	js.Global().Set("wellWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document JSON")
	}
	return result(eng.LoadDocument(args[0].String()))
}

func loadYAML(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("document YAML")
	}
	return result(eng.LoadYAML(args[0].String()))
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	return result(eng.LoadSampleDocument())
}

func setMode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("mode")
	}
	mode, err := schema.ParseMode(args[0].String())
	if err != nil {
		return result(err)
	}
	eng.SetMode(mode)
	return result(nil)
}

func setWhich(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(eng.SetWhich(nil))
	}
	which, err := engine.ParseCategories(args[0].String())
	if err != nil {
		return result(err)
	}
	return result(eng.SetWhich(which))
}

func setAsOf(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].IsNull() || args[0].IsUndefined() {
		return result(eng.SetAsOf(""))
	}
	return result(eng.SetAsOf(args[0].String()))
}

func setLimits(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		eng.SetLimits(nil)
		return result(nil)
	}
	eng.SetLimits(&engine.Limits{Top: args[0].Float(), Bottom: args[1].Float()})
	return result(nil)
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Render())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTest(args[0].Float(), args[1].Float()))
}

func hitTestPixel(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf("")
	}
	return js.ValueOf(eng.HitTestPixel(args[0].Float(), args[1].Float(), args[2].Float(), args[3].Float()))
}

func getComponentBounds(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("component name")
	}
	return js.ValueOf(eng.GetComponentBounds(args[0].String()))
}

func getViewMatrix(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("viewport size")
	}
	return js.ValueOf(eng.GetViewMatrix(args[0].Float(), args[1].Float()))
}

func getView(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetView())
}

func getDocument(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetDocument())
}

