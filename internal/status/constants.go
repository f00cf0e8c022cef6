// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the mirror layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per status slot.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the unit health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code (Modbus exception or 0x0B).
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long the unit has been failing, in seconds.
const SlotSecondsInError = 2

// SlotFieldsOK holds the number of fields read successfully in the last cycle.
const SlotFieldsOK = 3

// SlotFieldsFailed holds the number of failed fields in the last cycle.
const SlotFieldsFailed = 4

// SlotCycleMillis holds the duration of the last cycle in milliseconds.
const SlotCycleMillis = 5

// ---- RESERVED RANGE ----

const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxCounter is where every counter slot saturates.
const MaxCounter = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state before the first cycle.
const HealthUnknown uint16 = 0

// HealthOK means every field of the unit was read in the last cycle.
const HealthOK uint16 = 1

// HealthError means at least one field failed in the last cycle.
const HealthError uint16 = 2
