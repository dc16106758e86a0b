package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/citadel/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex int32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Name       string
}

func DeviceCreate(context *VulkanContext) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: uint32(len(queueCreateInfos)),
		PQueueCreateInfos:    queueCreateInfos,
	}
	if res := vk.CreateDevice(
		context.Device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&context.Device.LogicalDevice); res != vk.Success {
		return errors.Newf("failed to create logical device: %s", VulkanResultString(res))
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		uint32(context.Device.GraphicsQueueIndex),
		0,
		&context.Device.GraphicsQueue)
	context.Locks.SetQueueFamily(uint32(context.Device.GraphicsQueueIndex))
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(
		context.Device.LogicalDevice,
		&poolCreateInfo,
		context.Allocator,
		&context.Device.GraphicsCommandPool); res != vk.Success {
		return errors.Newf("failed to create graphics command pool: %s", VulkanResultString(res))
	}
	core.LogInfo("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device.LogicalDevice != nil {
		vk.DeviceWaitIdle(device.LogicalDevice)
		if device.GraphicsCommandPool != nil {
			core.LogInfo("Destroying command pools...")
			vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
			device.GraphicsCommandPool = nil
		}
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}
	device.GraphicsQueue = nil
	device.PhysicalDevice = nil
	device.GraphicsQueueIndex = -1
}

// SelectPhysicalDevice picks the first device exposing a graphics queue,
// preferring a discrete GPU.
func SelectPhysicalDevice(context *VulkanContext) error {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &count, nil); res != vk.Success {
		return errors.Newf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}
	if count == 0 {
		return errors.New("no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &count, devices); res != vk.Success {
		return errors.Newf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}

	selected := -1
	var selectedQueue uint32
	var selectedProps vk.PhysicalDeviceProperties
	for i := range devices {
		queueIndex, ok := findGraphicsQueue(devices[i])
		if !ok {
			continue
		}
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(devices[i], &props)
		props.Deref()

		if selected < 0 || (props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu && selectedProps.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu) {
			selected = i
			selectedQueue = queueIndex
			selectedProps = props
		}
	}
	if selected < 0 {
		return errors.New("no physical devices were found which meet the requirements")
	}

	context.Device.PhysicalDevice = devices[selected]
	context.Device.GraphicsQueueIndex = int32(selectedQueue)
	context.Device.Properties = selectedProps
	context.Device.Name = vk.ToString(selectedProps.DeviceName[:])

	core.LogInfo("Selected device: '%s'.", context.Device.Name)
	switch selectedProps.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(selectedProps.ApiVersion).Major(),
		vk.Version(selectedProps.ApiVersion).Minor(),
		vk.Version(selectedProps.ApiVersion).Patch(),
	)
	return nil
}

func findGraphicsQueue(device vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	if count == 0 {
		return 0, false
	}
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &count, families)
	required := vk.QueueFlags(vk.QueueGraphicsBit)
	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		if families[i].QueueFlags&required != 0 {
			return i, true
		}
	}
	return 0, false
}
