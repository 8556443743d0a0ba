package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Well-known setting keys consumed by the dispatch engine.
const (
	SettingSMSProvider = "sms_provider"

	SettingTwilioAccountSID  = "twilio_account_sid"
	SettingTwilioAuthToken   = "twilio_auth_token"
	SettingTwilioPhoneNumber = "twilio_phone_number"

	SettingAfricasTalkingUsername = "africas_talking_username"
	SettingAfricasTalkingAPIKey   = "africas_talking_api_key"

	SettingTermiiAPIKey   = "termii_api_key"
	SettingTermiiSenderID = "termii_sender_id"

	SettingMetaAppID     = "meta_app_id"
	SettingMetaAppSecret = "meta_app_secret"

	SettingTwitterAPIKey    = "twitter_api_key"
	SettingTwitterAPISecret = "twitter_api_secret"

	SettingTikTokClientKey    = "tiktok_client_key"
	SettingTikTokClientSecret = "tiktok_client_secret"
)

// SiteSetting is a single key/value configuration row. Provider choice and
// credentials live here so operators can rotate them without a restart; the
// dispatch loops re-read the whole set every tick.
type SiteSetting struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key       string             `bson:"key" json:"key"`
	Value     string             `bson:"value" json:"value"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
