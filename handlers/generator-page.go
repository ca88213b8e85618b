package handler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-gallery/batches"
	"github.com/krishkalaria12/snap-gallery/gallery"
	"github.com/krishkalaria12/snap-gallery/middleware"
	"github.com/krishkalaria12/snap-gallery/views"
)

const generatorTitle = "AI Image Generator"

func (h *Handler) renderGenerator(c *fiber.Ctx, p views.GeneratorPage) error {
	html(c)
	return h.views.Generator(c, p)
}

// Index renders the prompt form with empty slots.
func (h *Handler) Index(c *fiber.Ctx) error {
	page := views.NewGeneratorPage(h.page(c, generatorTitle), h.generator.Catalog().Models(), c.Query("model"), nil)
	return h.renderGenerator(c, page)
}

// GeneratePage runs a batch from the form. Failures are logged and the form
// is shown again without results.
func (h *Handler) GeneratePage(c *fiber.Ctx) error {
	prompt := c.FormValue("prompt")
	modelID := c.FormValue("model_id")

	urls, err := h.generator.Generate(c.UserContext(), prompt, modelID)
	if err != nil {
		_, message := generationFailure(err)
		page := views.NewGeneratorPage(h.page(c, generatorTitle), h.generator.Catalog().Models(), modelID, nil)
		page.Prompt = prompt
		page.Error = message
		return h.renderGenerator(c, page)
	}

	batch := h.batches.Create(prompt, modelID, urls)
	return c.Redirect("/batches/"+batch.ID, fiber.StatusSeeOther)
}

func (h *Handler) ShowBatch(c *fiber.Ctx) error {
	batch, ok := h.batches.Get(c.Params("id"))
	if !ok {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	page := views.NewGeneratorPage(h.page(c, generatorTitle), h.generator.Catalog().Models(), "", batch)
	return h.renderGenerator(c, page)
}

// slotParams resolves :id and :slot to a batch and an in-range slot index.
func (h *Handler) slotParams(c *fiber.Ctx) (*batches.Batch, int, string, bool) {
	batch, ok := h.batches.Get(c.Params("id"))
	if !ok {
		return nil, 0, "", false
	}
	slot, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return nil, 0, "", false
	}
	url, ok := batch.URL(slot)
	if !ok {
		return nil, 0, "", false
	}
	return batch, slot, url, true
}

// CopySlot marks the slot copied and hands the URL to the page script, which
// writes it to the clipboard.
func (h *Handler) CopySlot(c *fiber.Ctx) error {
	batch, slot, url, ok := h.slotParams(c)
	if !ok {
		return respond(c, fiber.StatusNotFound, "Image not found", nil)
	}
	batch.Slots.MarkCopied(slot)
	return respond(c, fiber.StatusOK, "Copied", fiber.Map{"url": url})
}

// DownloadSlot streams the image as generated-image-<n>.png. Failures are
// only logged.
func (h *Handler) DownloadSlot(c *fiber.Ctx) error {
	batch, slot, url, ok := h.slotParams(c)
	if !ok {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	back := "/batches/" + batch.ID

	req, err := newGetRequest(c, url)
	if err != nil {
		h.logDownloadFailure(url, err)
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	res, err := h.client.Do(req)
	if err != nil {
		h.logDownloadFailure(url, err)
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		h.logDownloadFailure(url, fmt.Errorf("received status code %d", res.StatusCode))
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, gallery.MaxImageBytes+1))
	if err != nil {
		h.logDownloadFailure(url, err)
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if len(data) > gallery.MaxImageBytes {
		h.logDownloadFailure(url, fmt.Errorf("image exceeds %d bytes", gallery.MaxImageBytes))
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	contentType := res.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = "image/png"
	}
	c.Attachment(fmt.Sprintf("generated-image-%d.png", slot+1))
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func (h *Handler) logDownloadFailure(url string, err error) {
	h.log.Error(logModule, "error downloading image", map[string]interface{}{
		"url":   url,
		"error": err,
	})
}

// SaveSlot saves one slot to the signed-in user's gallery. Without a session,
// or while the slot is saving or already saved, it does nothing.
func (h *Handler) SaveSlot(c *fiber.Ctx) error {
	batch, slot, url, ok := h.slotParams(c)
	if !ok {
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	back := "/batches/" + batch.ID

	sess := middleware.CurrentSession(c)
	if sess == nil {
		return c.Redirect(back, fiber.StatusSeeOther)
	}
	if !batch.Slots.BeginSave(slot) {
		return c.Redirect(back, fiber.StatusSeeOther)
	}

	_, err := h.gallery.Save(c.UserContext(), sess, url, batch.Prompt, batch.ModelID)
	batch.Slots.FinishSave(slot, err)
	if err != nil {
		h.log.Error(logModule, "error saving image to gallery", map[string]interface{}{
			"batch": batch.ID,
			"slot":  slot,
			"error": err,
		})
	}
	return c.Redirect(back, fiber.StatusSeeOther)
}
