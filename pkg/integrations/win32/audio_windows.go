//go:build windows

package win32

import (
	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/audio"
)

// HRESULTs that mean the endpoint no longer refers to a live device.
const (
	hrDeviceInvalidated = 0x88890004 // AUDCLNT_E_DEVICE_INVALIDATED
	hrDisconnected      = 0x80010108 // RPC_E_DISCONNECTED
	hrNotFound          = 0x80070490 // HRESULT_FROM_WIN32(ERROR_NOT_FOUND)
	hrServerUnavailable = 0x800706BA // RPC_S_SERVER_UNAVAILABLE
	hrServiceNotRunning = 0x88890010 // AUDCLNT_E_SERVICE_NOT_RUNNING
	hrChangedMode       = 0x80010106 // RPC_E_CHANGED_MODE
	sFalse              = 0x00000001
)

// Backend resolves the default render endpoint through the MMDevice API.
//
// COM is initialized for the calling OS thread in NewBackend. Every method of
// the backend and of the endpoints it returns must be called on that thread.
type Backend struct {
	uninitialize bool
}

// NewBackend initializes COM for the current thread. Initializing a thread
// that is already initialized is harmless.
func NewBackend() (*Backend, error) {
	b := &Backend{}
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		switch hresult(err) {
		case sFalse:
			// Already initialized with the same model; still needs balancing.
			b.uninitialize = true
		case hrChangedMode:
			// Initialized elsewhere with another model; usable, not ours to undo.
		default:
			return nil, errors.Wrap(err, "CoInitializeEx failed")
		}
	} else {
		b.uninitialize = true
	}
	return b, nil
}

// Name returns "wasapi"
func (b *Backend) Name() string {
	return "wasapi"
}

// Acquire returns a handle to the current default multimedia render device.
func (b *Backend) Acquire() (audio.Endpoint, error) {
	var enumerator *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &enumerator); err != nil {
		return nil, errors.Wrap(err, "failed to create device enumerator")
	}
	defer enumerator.Release()

	var device *wca.IMMDevice
	if err := enumerator.GetDefaultAudioEndpoint(wca.ERender, wca.EMultimedia, &device); err != nil {
		return nil, errors.Wrap(err, "failed to get default render endpoint")
	}
	defer device.Release()

	var volume *wca.IAudioEndpointVolume
	if err := device.Activate(wca.IID_IAudioEndpointVolume, wca.CLSCTX_ALL, nil, &volume); err != nil {
		return nil, errors.Wrap(err, "failed to activate endpoint volume")
	}

	return &endpoint{volume: volume}, nil
}

// Close balances the CoInitializeEx made by NewBackend.
func (b *Backend) Close() error {
	if b.uninitialize {
		ole.CoUninitialize()
		b.uninitialize = false
	}
	return nil
}

type endpoint struct {
	volume *wca.IAudioEndpointVolume
}

func (e *endpoint) Muted() (bool, error) {
	var muted bool
	if err := e.volume.GetMute(&muted); err != nil {
		return false, classify(errors.Wrap(err, "GetMute failed"))
	}
	return muted, nil
}

func (e *endpoint) SetMuted(muted bool) error {
	if err := e.volume.SetMute(muted, nil); err != nil {
		return classify(errors.Wrap(err, "SetMute failed"))
	}
	return nil
}

func (e *endpoint) Release() error {
	if e.volume != nil {
		e.volume.Release()
		e.volume = nil
	}
	return nil
}

func classify(err error) error {
	switch hresult(err) {
	case hrDeviceInvalidated, hrDisconnected, hrNotFound, hrServerUnavailable, hrServiceNotRunning:
		return audio.Stale(err)
	}
	return err
}

func hresult(err error) uint32 {
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		return uint32(oleErr.Code())
	}
	return 0
}
