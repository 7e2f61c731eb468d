package tools

import (
	"github.com/sandevgo/falcon/internal/core"
	"github.com/sandevgo/falcon/internal/service/memory"
)

// BuiltinConfig carries the dependencies of the built-in tool set.
type BuiltinConfig struct {
	RuntimePath  string
	ImageCommand string
	Provider     core.AIProvider
	Facts        core.FactsRepository
	Manager      *memory.Manager
}

// RegisterBuiltin wires the built-in backends into reg. Registration order
// is the order tools are advertised to the model.
func RegisterBuiltin(reg *Registry, cfg BuiltinConfig) {
	automation := NewAutomation(cfg.RuntimePath, cfg.Manager.Working())
	reg.Register(
		"execute_system_task",
		"Execute system tasks like opening/closing applications, automation, playing music, writing files, desktop operations, etc.",
		executeSystemTaskSchema,
		"system_task",
		automation.ExecuteSystemTask,
	)

	imageGen := NewImageGen(cfg.ImageCommand, cfg.RuntimePath)
	reg.Register(
		"generate_image",
		"Generate images based on text prompts using AI image generation",
		generateImageSchema,
		"image_generation",
		imageGen.GenerateImage,
	)

	content := NewContentWriter(cfg.Provider, cfg.RuntimePath)
	reg.Register(
		"write_content",
		"Generate and write content like code and blogs. Supports various content types and lengths.",
		writeContentSchema,
		"content_generation",
		content.WriteContent,
	)

	remember := NewRemember(cfg.Facts, cfg.Manager)
	reg.Register(
		"remember_information",
		"Store important information in long-term memory",
		rememberInformationSchema,
		"memory",
		remember.RememberInformation,
	)
}
