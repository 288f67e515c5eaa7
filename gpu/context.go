package gpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/openfluke/webgpu/wgpu"
)

// ForceAdapter force-selects the first adapter whose name or vendor
// contains this substring (case-insensitive). Empty means automatic
// selection. Set before the first GetContext call.
var ForceAdapter string

// PowerPreference steers automatic adapter selection when no adapter
// is force-selected: "high", "low" or "default".
var PowerPreference = "high"

// Context holds the single WebGPU context for the application
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
}

var ctx Context

// GetContext returns the singleton GPU context, initializing it if necessary
func GetContext() (*Context, error) {
	var initErr error
	ctx.once.Do(func() {
		ctx.Instance = wgpu.CreateInstance(nil)
		if ctx.Instance == nil {
			initErr = fmt.Errorf("failed to create WebGPU instance")
			return
		}

		// 0. Honor an explicit adapter override via EnumerateAdapters
		if ForceAdapter != "" {
			want := strings.ToLower(ForceAdapter)
			adapters := ctx.Instance.EnumerateAdapters(nil)
			for _, a := range adapters {
				info := a.GetInfo()
				Log("adapter: %s (Vendor: %s, DeviceID: 0x%X, VendorID: 0x%X, Type: %d)",
					info.Name, info.VendorName, info.DeviceId, info.VendorId, info.AdapterType)
				if strings.Contains(strings.ToLower(info.Name), want) ||
					strings.Contains(strings.ToLower(info.VendorName), want) {
					Log("force-selecting adapter: %s", info.Name)
					ctx.Adapter = a
					break
				}
			}
			if ctx.Adapter == nil {
				initErr = fmt.Errorf("no adapter matching %q", ForceAdapter)
				return
			}
		}

		// Helper to try init with an adapter option
		tryInit := func(opts *wgpu.RequestAdapterOptions) error {
			if ctx.Adapter != nil {
				return nil // Already found
			}
			var err error
			ctx.Adapter, err = ctx.Instance.RequestAdapter(opts)
			return err
		}

		// 1. Try the configured power preference
		if ctx.Adapter == nil && PowerPreference != "default" {
			pref := wgpu.PowerPreferenceHighPerformance
			if PowerPreference == "low" {
				pref = wgpu.PowerPreferenceLowPower
			}
			initErr = tryInit(&wgpu.RequestAdapterOptions{PowerPreference: pref})
		}

		if initErr != nil && ctx.Adapter == nil {
			Log("preferred adapter failed: %v, falling back", initErr)
			// 2. Try Low Power
			initErr = tryInit(&wgpu.RequestAdapterOptions{
				PowerPreference: wgpu.PowerPreferenceLowPower,
			})
		}

		if initErr != nil || ctx.Adapter == nil {
			// 3. Default
			initErr = tryInit(nil)
		}

		if ctx.Adapter == nil {
			initErr = fmt.Errorf("all adapter attempts failed: %v", initErr)
			return
		}

		info := ctx.Adapter.GetInfo()
		Log("using GPU adapter: %s (Vendor: %s)", info.Name, info.VendorName)

		var err error
		ctx.Device, err = ctx.Adapter.RequestDevice(nil)
		if err != nil {
			initErr = err
			return
		}

		ctx.Queue = ctx.Device.GetQueue()
	})

	if initErr != nil {
		return nil, initErr
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, fmt.Errorf("WebGPU device or queue not initialized")
	}

	return &ctx, nil
}

// AdapterName returns a printable description of the adapter in use.
func (c *Context) AdapterName() string {
	if c.Adapter == nil {
		return "unknown"
	}
	info := c.Adapter.GetInfo()
	return fmt.Sprintf("%s (%s)", strings.TrimSpace(info.Name), strings.TrimSpace(info.VendorName))
}
