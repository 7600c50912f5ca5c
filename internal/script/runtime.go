// Package script hosts the Lua mod runtime. Mods register event handlers,
// container layouts, and interaction handlers at load time; the world loop
// invokes them synchronously on the game-logic goroutine, so the interpreter
// needs no locking.
package script

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/Shopify/go-lua"

	"voxelhold/internal/sim/catalogs"
	"voxelhold/internal/sim/events"
	"voxelhold/internal/sim/inventory"
)

const viewTypeName = "voxelhold.view"

// Registry slots below this are reserved by go-lua itself.
const firstRef = 16

type Runtime struct {
	l    *lua.State
	bus  *events.Bus
	invs *inventory.Table
	cats *catalogs.Catalogs
	log  *log.Logger

	layouts    map[string]*inventory.Layout
	clicks     map[string]inventory.ClickHandler
	scrolls    map[string]inventory.ScrollHandler
	containers map[string]inventory.Handle
	conLayouts map[string]string
	nextRef    int
}

func New(bus *events.Bus, invs *inventory.Table, cats *catalogs.Catalogs, logger *log.Logger) *Runtime {
	r := &Runtime{
		bus:        bus,
		invs:       invs,
		cats:       cats,
		log:        logger,
		layouts:    map[string]*inventory.Layout{},
		clicks:     map[string]inventory.ClickHandler{},
		scrolls:    map[string]inventory.ScrollHandler{},
		containers: map[string]inventory.Handle{},
		conLayouts: map[string]string{},
		nextRef:    firstRef,
	}
	r.l = lua.NewState()
	lua.OpenLibraries(r.l)
	r.registerViewType()
	r.registerGlobals()
	return r
}

// LoadDir runs every *.lua file in dir in lexical order. A missing dir is
// fine: a server with no mods installed still boots.
func (r *Runtime) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := lua.DoFile(r.l, p); err != nil {
			return fmt.Errorf("mod %s: %w", filepath.Base(p), err)
		}
		if r.log != nil {
			r.log.Printf("loaded mod %s", filepath.Base(p))
		}
	}
	return nil
}

func (r *Runtime) Layout(id string) *inventory.Layout { return r.layouts[id] }

// Layouts returns every registered layout sorted by id.
func (r *Runtime) Layouts() []*inventory.Layout {
	ids := make([]string, 0, len(r.layouts))
	for id := range r.layouts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*inventory.Layout, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.layouts[id])
	}
	return out
}

// ClickHandler returns the scripted click handler for a layout, or nil when
// the layout relies on the built-in behavior.
func (r *Runtime) ClickHandler(layoutID string) inventory.ClickHandler { return r.clicks[layoutID] }

func (r *Runtime) ScrollHandler(layoutID string) inventory.ScrollHandler { return r.scrolls[layoutID] }

// Container resolves a shared container created by a mod.
func (r *Runtime) Container(name string) (inventory.Handle, bool) {
	h, ok := r.containers[name]
	return h, ok
}

func (r *Runtime) ContainerLayout(name string) string { return r.conLayouts[name] }

// ref parks the value on top of the stack in the registry and returns its
// slot. Refs are never released: mods register handlers once at load time.
func (r *Runtime) ref() int {
	n := r.nextRef
	r.nextRef++
	r.l.RawSetInt(lua.RegistryIndex, n)
	return n
}

func (r *Runtime) registerGlobals() {
	l := r.l
	l.Register("register_event", func(l *lua.State) int {
		id := lua.CheckString(l, 1)
		lua.CheckType(l, 2, lua.TypeFunction)
		l.PushValue(2)
		r.bus.Register(id, &luaEventHandler{r: r, ref: r.ref()})
		return 0
	})
	l.Register("emit_event", func(l *lua.State) int {
		id := lua.CheckString(l, 1)
		ctx := events.Context{}
		if !l.IsNoneOrNil(2) {
			lua.CheckType(l, 2, lua.TypeTable)
			r.readContext(2, ctx)
		}
		if _, err := r.bus.Call(id, ctx); err != nil {
			lua.Errorf(l, "%s", err.Error())
		}
		r.pushContext(ctx)
		return 1
	})
	l.Register("define_layout", func(l *lua.State) int {
		id := lua.CheckString(l, 1)
		slots := lua.CheckInteger(l, 2)
		var controls []string
		for i := 3; i <= l.Top(); i++ {
			controls = append(controls, lua.CheckString(l, i))
		}
		r.layouts[id] = inventory.NewLayout(id, slots, controls...)
		return 0
	})
	l.Register("on_click", func(l *lua.State) int {
		id := lua.CheckString(l, 1)
		lua.CheckType(l, 2, lua.TypeFunction)
		l.PushValue(2)
		r.clicks[id] = &luaClickHandler{r: r, ref: r.ref()}
		return 0
	})
	l.Register("on_scroll", func(l *lua.State) int {
		id := lua.CheckString(l, 1)
		lua.CheckType(l, 2, lua.TypeFunction)
		l.PushValue(2)
		r.scrolls[id] = &luaScrollHandler{r: r, ref: r.ref()}
		return 0
	})
	l.Register("create_container", func(l *lua.State) int {
		name := lua.CheckString(l, 1)
		size := lua.CheckInteger(l, 2)
		layout := lua.OptString(l, 3, "")
		if _, exists := r.containers[name]; exists {
			lua.Errorf(l, "container %s already exists", name)
		}
		r.containers[name] = r.invs.Create(size)
		if layout != "" {
			r.conLayouts[name] = layout
		}
		return 0
	})
	l.Register("container", func(l *lua.State) int {
		name := lua.CheckString(l, 1)
		h, ok := r.containers[name]
		if !ok {
			lua.Errorf(l, "unknown container %s", name)
		}
		r.pushView(r.invs.Get(h).FullView())
		return 1
	})
	l.Register("item_palette", func(l *lua.State) int {
		l.NewTable()
		for i, id := range r.cats.Items.Palette {
			l.PushString(id)
			l.RawSetInt(-2, i+1)
		}
		return 1
	})
	l.Register("stack_size", func(l *lua.State) int {
		def := r.cats.Item(lua.CheckString(l, 1))
		if def == nil {
			l.PushNil()
		} else {
			l.PushInteger(def.StackSize)
		}
		return 1
	})
	l.Register("clamp_page", func(l *lua.State) int {
		page := lua.CheckInteger(l, 1)
		items := lua.CheckInteger(l, 2)
		per := lua.CheckInteger(l, 3)
		l.PushInteger(ClampPage(page, items, per))
		return 1
	})
}

func (r *Runtime) registerViewType() {
	l := r.l
	lua.NewMetaTable(l, viewTypeName)
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "slots", Function: func(l *lua.State) int {
			l.PushInteger(checkView(l).Size())
			return 1
		}},
		{Name: "get_item", Function: func(l *lua.State) int {
			v := checkView(l)
			st, err := v.GetItem(lua.CheckInteger(l, 2))
			if err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			if st == nil {
				l.PushNil()
				return 1
			}
			l.PushString(st.Def().ID)
			l.PushInteger(st.Count())
			return 2
		}},
		{Name: "set_item", Function: func(l *lua.State) int {
			v := checkView(l)
			slot := lua.CheckInteger(l, 2)
			var st *inventory.ItemStack
			if !l.IsNoneOrNil(3) {
				id := lua.CheckString(l, 3)
				def := r.cats.Item(id)
				if def == nil {
					lua.Errorf(l, "unknown item %s", id)
				}
				st = inventory.NewStack(def, lua.OptInteger(l, 4, 1))
			}
			if err := v.SetItem(slot, st); err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			return 0
		}},
		{Name: "deposit", Function: func(l *lua.State) int {
			v := checkView(l)
			id := lua.CheckString(l, 2)
			def := r.cats.Item(id)
			if def == nil {
				lua.Errorf(l, "unknown item %s", id)
			}
			left := v.Deposit(inventory.NewStack(def, lua.OptInteger(l, 3, 1)))
			if left == nil {
				l.PushInteger(0)
			} else {
				l.PushInteger(left.Count())
			}
			return 1
		}},
		{Name: "set_property", Function: func(l *lua.State) int {
			v := checkView(l)
			name := lua.CheckString(l, 2)
			v.Inventory().SetClientProperty(name, luaToGo(l, 3))
			return 0
		}},
		{Name: "user_data", Function: func(l *lua.State) int {
			v := checkView(l)
			r.pushGo(v.Inventory().GetUserData(lua.CheckString(l, 2)))
			return 1
		}},
		{Name: "set_user_data", Function: func(l *lua.State) int {
			v := checkView(l)
			v.Inventory().SetUserData(lua.CheckString(l, 2), luaToGo(l, 3))
			return 0
		}},
		{Name: "close", Function: func(l *lua.State) int {
			checkView(l).Close()
			return 0
		}},
	}, 0)
	l.SetField(-2, "__index")
	l.Pop(1)
}

func (r *Runtime) pushView(v *inventory.View) {
	r.l.PushUserData(v)
	lua.SetMetaTableNamed(r.l, viewTypeName)
}

func checkView(l *lua.State) *inventory.View {
	ud := lua.CheckUserData(l, 1, viewTypeName)
	if v, ok := ud.(*inventory.View); ok && v != nil {
		return v
	}
	lua.ArgumentError(l, 1, "view expected")
	return nil
}

// pushContext builds a fresh Lua table mirroring ctx.
func (r *Runtime) pushContext(ctx events.Context) {
	r.l.NewTable()
	for k, v := range ctx {
		r.pushGo(v)
		r.l.SetField(-2, k)
	}
}

// readContext replaces ctx's entries with the table at index, so keys a
// handler set to nil disappear from the shared context.
func (r *Runtime) readContext(index int, ctx events.Context) {
	l := r.l
	index = l.AbsIndex(index)
	for k := range ctx {
		delete(ctx, k)
	}
	l.PushNil()
	for l.Next(index) {
		if l.TypeOf(-2) == lua.TypeString {
			k, _ := l.ToString(-2)
			ctx[k] = luaToGo(l, -1)
		}
		l.Pop(1)
	}
}

func (r *Runtime) pushGo(v any) {
	l := r.l
	switch x := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(x)
	case int:
		l.PushInteger(x)
	case int64:
		l.PushNumber(float64(x))
	case float64:
		l.PushNumber(x)
	case string:
		l.PushString(x)
	default:
		l.PushString(fmt.Sprint(x))
	}
}

func luaToGo(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		if n == math.Trunc(n) && math.Abs(n) < math.MaxInt32 {
			return int(n)
		}
		return n
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	default:
		return nil
	}
}
