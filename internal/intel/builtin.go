package intel

import "github.com/brian-scardina/spyspotter/pkg/models"

const builtinVersion = "2025.08.1"

// builtinSignatures is the catalogue shipped with the engine, used when no
// external database file is configured.
func builtinSignatures() []models.TrackerSignature {
	return []models.TrackerSignature{
		{
			ID:        "google_analytics",
			Name:      "Google Analytics",
			Category:  models.CategoryAnalytics,
			RiskLevel: models.RiskMedium,
			Domains: []string{
				"google-analytics.com",
				"analytics.google.com",
				"ssl.google-analytics.com",
			},
			Patterns: []string{
				`\bga\s*\(`,
				`\bgtag\s*\(`,
				`_gaq\.push`,
				`GoogleAnalyticsObject`,
			},
			Description:     "Page view, event and conversion tracking",
			Purpose:         "behavioral analytics",
			DataTypes:       []string{"page_views", "events", "client_id"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "google_tag_manager",
			Name:      "Google Tag Manager",
			Category:  models.CategoryMarketingAutomation,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"googletagmanager.com"},
			Patterns: []string{
				`gtm\.js`,
				`gtm\.start`,
				`dataLayer\.push`,
			},
			Description:     "Tag container that loads further trackers",
			Purpose:         "tag management",
			DataTypes:       []string{"page_views"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "doubleclick",
			Name:      "Google DoubleClick",
			Category:  models.CategoryAdvertising,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"doubleclick.net", "googleadservices.com", "googlesyndication.com"},
			Patterns:  []string{`doubleclick\.net`},
			Description:     "Ad serving and cross-site ad targeting",
			Purpose:         "advertising",
			DataTypes:       []string{"browsing_history", "interests", "ad_clicks"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionNetwork,
		},
		{
			ID:        "facebook_pixel",
			Name:      "Facebook Pixel",
			Category:  models.CategorySocialAdvertising,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"connect.facebook.net", "facebook.com"},
			Patterns: []string{
				`\bfbq\s*\(`,
				`fbevents\.js`,
				`facebook\.com/tr`,
			},
			Description:     "Conversion tracking and ad audience building",
			Purpose:         "social advertising",
			DataTypes:       []string{"conversions", "page_views", "custom_audiences"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "tiktok_pixel",
			Name:      "TikTok Pixel",
			Category:  models.CategorySocialAdvertising,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"analytics.tiktok.com"},
			Patterns:  []string{`\bttq\.(load|page|track)\b`},
			Description:     "Conversion tracking and remarketing for TikTok ads",
			Purpose:         "social advertising",
			DataTypes:       []string{"conversions", "device_ids"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "criteo",
			Name:      "Criteo",
			Category:  models.CategoryAdvertising,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"criteo.com", "criteo.net"},
			Patterns:  []string{`criteo_q`},
			Description:     "Retargeting ad network",
			Purpose:         "advertising",
			DataTypes:       []string{"browsing_history", "product_views"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionNetwork,
		},
		{
			ID:        "mixpanel",
			Name:      "Mixpanel",
			Category:  models.CategoryAnalytics,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"mixpanel.com", "cdn.mxpnl.com", "api-js.mixpanel.com"},
			Patterns:  []string{`mixpanel\.(init|track|identify)`},
			Description:     "Product analytics and user profiling",
			Purpose:         "behavioral analytics",
			DataTypes:       []string{"events", "user_profiles"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "hotjar",
			Name:      "Hotjar",
			Category:  models.CategoryUserExperience,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"hotjar.com", "static.hotjar.com", "script.hotjar.com"},
			Patterns:  []string{`_hjSettings`, `\bhj\s*\(`},
			Description:     "Session recording and heatmaps",
			Purpose:         "session replay",
			DataTypes:       []string{"mouse_movements", "keystrokes", "session_recordings"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "fullstory",
			Name:      "FullStory",
			Category:  models.CategoryUserExperience,
			RiskLevel: models.RiskHigh,
			Domains:   []string{"fullstory.com", "rs.fullstory.com"},
			Patterns:  []string{`window\['_fs_host'\]`, `\bFS\.identify\b`},
			Description:     "Full session replay",
			Purpose:         "session replay",
			DataTypes:       []string{"session_recordings", "form_inputs"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "fingerprintjs",
			Name:      "FingerprintJS",
			Category:  models.CategoryPrivacyInvasion,
			RiskLevel: models.RiskCritical,
			Domains:   []string{"fpjs.io", "fpcdn.io"},
			Patterns:  []string{`FingerprintJS`, `fpPromise`},
			Description:     "Browser fingerprinting for persistent identification",
			Purpose:         "device fingerprinting",
			DataTypes:       []string{"device_fingerprint", "canvas_hash", "fonts"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "linkedin_insight",
			Name:      "LinkedIn Insight Tag",
			Category:  models.CategorySocialAdvertising,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"snap.licdn.com", "px.ads.linkedin.com"},
			Patterns:  []string{`_linkedin_partner_id`},
			Description:     "B2B conversion tracking and retargeting",
			Purpose:         "social advertising",
			DataTypes:       []string{"conversions", "professional_profile"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "hubspot",
			Name:      "HubSpot",
			Category:  models.CategoryMarketingAutomation,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"hs-scripts.com", "hs-analytics.net", "hubspot.com"},
			Patterns:  []string{`_hsq\.push`},
			Description:     "Marketing automation and lead tracking",
			Purpose:         "marketing automation",
			DataTypes:       []string{"page_views", "form_submissions", "email_opens"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "optimizely",
			Name:      "Optimizely",
			Category:  models.CategoryOptimization,
			RiskLevel: models.RiskLow,
			Domains:   []string{"optimizely.com", "cdn.optimizely.com"},
			Patterns:  []string{`optimizely\.push`},
			Description:     "A/B testing and experimentation",
			Purpose:         "site optimization",
			DataTypes:       []string{"experiment_buckets"},
			GDPRRelevant:    false,
			CCPARelevant:    false,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "new_relic",
			Name:      "New Relic Browser",
			Category:  models.CategoryPerformance,
			RiskLevel: models.RiskLow,
			Domains:   []string{"js-agent.newrelic.com", "bam.nr-data.net"},
			Patterns:  []string{`NREUM`},
			Description:     "Real user performance monitoring",
			Purpose:         "performance monitoring",
			DataTypes:       []string{"timing_metrics"},
			GDPRRelevant:    false,
			CCPARelevant:    false,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "pinterest_tag",
			Name:      "Pinterest Tag",
			Category:  models.CategorySocialAdvertising,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"ct.pinterest.com", "s.pinimg.com"},
			Patterns:  []string{`\bpintrk\s*\(`},
			Description:     "Conversion tracking for Pinterest ads",
			Purpose:         "social advertising",
			DataTypes:       []string{"conversions"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
		{
			ID:        "amplitude",
			Name:      "Amplitude",
			Category:  models.CategoryAnalytics,
			RiskLevel: models.RiskMedium,
			Domains:   []string{"amplitude.com", "cdn.amplitude.com", "api.amplitude.com"},
			Patterns:  []string{`amplitude\.getInstance`},
			Description:     "Product analytics",
			Purpose:         "behavioral analytics",
			DataTypes:       []string{"events", "user_properties"},
			GDPRRelevant:    true,
			CCPARelevant:    true,
			DetectionMethod: models.DetectionJavaScript,
		},
	}
}
