package intercept

import (
	"github.com/char5742/gamepad-bridge/internal/device"
	"github.com/char5742/gamepad-bridge/internal/event"
)

// PhysicalDevice は占有した物理ゲームパッドに必要な操作
type PhysicalDevice interface {
	Name() string
	Phys() string
	Path() string
	PendingEvents() ([]event.Event, error)
	WriteEvent(typ uint16, code uint16, value int32) error
	UploadEffect(effect device.FFEffect, id int16) (int16, error)
	EraseEffect(id int16) error
	Grab() error
	Release() error
	Close() error
}

// VirtualDevice はuinput上の仮想デバイスに必要な操作
type VirtualDevice interface {
	WriteEvent(typ uint16, code uint16, value int32) error
	Sync() error
	PendingEvents() ([]event.Event, error)
	BeginFFUpload(requestID int32) (*device.FFUpload, error)
	EndFFUpload(upload *device.FFUpload) error
	BeginFFErase(requestID int32) (*device.FFErase, error)
	EndFFErase(erase *device.FFErase) error
	IsOpen() bool
	Close() error
}
