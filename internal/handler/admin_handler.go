package handler

import (
	"fmt"
	"net/http"
	"subscriber-journey/internal/domain"
	"subscriber-journey/internal/service"

	"github.com/gorilla/mux"
)

type ListHandler struct {
	listService *service.ListService
}

func NewListHandler(listService *service.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

func (h *ListHandler) GetLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.listService.GetLists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", lists)
}

type listRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	list, err := h.listService.CreateList(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "List created successfully", list)
}

func (h *ListHandler) GetSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.listService.ListSubscribers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", subscribers)
}

func (h *ListHandler) AddSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	subscriber, err := h.listService.AddSubscriberToList(r.Context(), req.Email, req.Name, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Subscriber added to list", subscriber)
}

func (h *ListHandler) RemoveSubscriber(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.listService.RemoveSubscriberFromList(r.Context(), vars["subscriberId"], vars["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subscriber removed from list", nil)
}

type CampaignHandler struct {
	campaignService *service.CampaignService
	feedService     *service.FeedService
}

func NewCampaignHandler(campaignService *service.CampaignService, feedService *service.FeedService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		feedService:     feedService,
	}
}

func (h *CampaignHandler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaignService.GetCampaigns(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", campaigns)
}

func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.campaignService.GetCampaign(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", campaign)
}

type campaignRequest struct {
	Name    string   `json:"name"`
	ListIDs []string `json:"listIds"`
	Subject string   `json:"subject"`
	Content string   `json:"content"`
}

func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	campaign, err := h.campaignService.CreateCampaign(r.Context(), req.Name, req.ListIDs, req.Subject, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Campaign created successfully", campaign)
}

func (h *CampaignHandler) CreateFromFeed(w http.ResponseWriter, r *http.Request) {
	var req service.FeedCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	campaign, err := h.feedService.CreateCampaignFromFeed(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Campaign created successfully", campaign)
}

func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var update domain.CampaignUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	campaign, err := h.campaignService.UpdateCampaign(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Campaign updated successfully", campaign)
}

func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaignService.DeleteCampaign(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Campaign deleted successfully", nil)
}

type sendCampaignRequest struct {
	CC  []string `json:"cc"`
	BCC []string `json:"bcc"`
}

func (h *CampaignHandler) SendCampaign(w http.ResponseWriter, r *http.Request) {
	var req sendCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.campaignService.SendCampaign(r.Context(), mux.Vars(r)["id"], req.CC, req.BCC)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, fmt.Sprintf("Campaign sent to %d subscribers", result.Sent), result)
}

type SettingsHandler struct {
	settingsService *service.SettingsService
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func (h *SettingsHandler) GetSMTPSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSMTPSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", settings)
}

func (h *SettingsHandler) UpdateSMTPSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.SmtpSettings
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.settingsService.UpdateSMTPSettings(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "SMTP settings updated successfully and test email sent", nil)
}
