package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/unievents/internal/app/controllers"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/middleware"
)

// Controllers groups every HTTP controller the router mounts
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	AdminUser    *controllers.AdminUserController
	Event        *controllers.EventController
	Registration *controllers.RegistrationController
	Attendance   *controllers.AttendanceController
	Certificate  *controllers.CertificateController
	Club         *controllers.ClubController
	Bus          *controllers.BusController
	Notification *controllers.NotificationController
	Feedback     *controllers.FeedbackController
	Contact      *controllers.ContactController
	Report       *controllers.ReportController
	// WebSocket upgrades /notifications/ws connections
	WebSocket gin.HandlerFunc
}

// RateLimiters holds one limiter per tier; nil entries disable that tier
type RateLimiters struct {
	Auth    *middleware.RateLimiter
	Contact *middleware.RateLimiter
	Public  *middleware.RateLimiter
}

func limit(rl *middleware.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	limiters RateLimiters,
) {
	// API version group
	v1 := router.Group("/api/v1")
	v1.Use(limit(limiters.Public))

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	auth.Use(limit(limiters.Auth))
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/verify-email", c.Auth.VerifyEmail)
		auth.POST("/resend-verification", c.Auth.ResendVerification)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/verify-2fa", c.Auth.VerifyTwoFactor)
		auth.POST("/resend-2fa", c.Auth.ResendTwoFactor)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/forgot-password", c.Auth.ForgotPassword)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}

	// --- Public catalogue routes ---
	v1.GET("/home", c.Event.Home)
	events := v1.Group("/events")
	{
		events.GET("", c.Event.ListEvents)
		events.GET("/upcoming", c.Event.Upcoming)
		events.GET("/:id", authMiddleware.OptionalAuth(), c.Event.GetEvent)
		events.GET("/:id/buses", c.Bus.ListByEvent)
	}
	clubs := v1.Group("/clubs")
	{
		clubs.GET("", authMiddleware.OptionalAuth(), c.Club.ListClubs)
		clubs.GET("/:id", authMiddleware.OptionalAuth(), c.Club.GetClub)
	}
	v1.GET("/buses/:id", c.Bus.GetBus)
	v1.POST("/contact",
		limit(limiters.Contact),
		middleware.ValidateRequest[dto.ContactRequest](),
		c.Contact.Submit,
	)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		// Profile and account routes work before the email is verified
		me := authenticated.Group("/users/me")
		{
			me.GET("", c.User.GetProfile)
			me.PUT("", c.User.UpdateProfile)
			me.POST("/password", c.User.ChangePassword)
			me.POST("/password/verify", c.User.ConfirmPasswordChange)
			me.POST("/2fa/enable", c.User.EnableTwoFactor)
			me.POST("/2fa/disable", c.User.DisableTwoFactor)
			me.GET("/dashboard", c.User.Dashboard)
			me.GET("/history", c.User.History)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", c.Notification.List)
			notifications.GET("/unread-count", c.Notification.UnreadCount)
			notifications.POST("/read-all", c.Notification.MarkAllRead)
			notifications.GET("/:id", c.Notification.Get)
			notifications.POST("/:id/read", c.Notification.MarkRead)
			notifications.DELETE("/:id", c.Notification.Delete)
			if c.WebSocket != nil {
				notifications.GET("/ws", c.WebSocket)
			}
		}
	}

	// Participation needs a verified email
	verified := authenticated.Group("")
	verified.Use(authMiddleware.EmailVerificationRequired())
	{
		verified.POST("/events/:id/register", c.Registration.Register)
		verified.POST("/events/:id/feedback", c.Feedback.Submit)
		verified.GET("/events/:id/feedback/eligibility", c.Feedback.Eligibility)

		verified.GET("/registrations/me", c.Registration.ListMine)
		verified.DELETE("/registrations/:id", c.Registration.Cancel)

		attendance := verified.Group("/attendance")
		{
			attendance.POST("/check-in", c.Attendance.CheckIn)
			attendance.GET("/scan", c.Attendance.Scan)
			attendance.GET("/me", c.Attendance.ListMine)
		}

		certificates := verified.Group("/certificates")
		{
			certificates.GET("/me", c.Certificate.ListMine)
			certificates.GET("/:id", c.Certificate.Get)
			certificates.GET("/:id/download", c.Certificate.Download)
		}

		verified.GET("/clubs/me", c.Club.ListMine)
		verified.POST("/clubs/:id/join", c.Club.Join)
		verified.DELETE("/clubs/:id/leave", c.Club.Leave)

		verified.POST("/buses/:id/reservations", c.Bus.Reserve)
		verified.GET("/bus-reservations/me", c.Bus.ListMine)
		verified.DELETE("/bus-reservations/:id", c.Bus.CancelReservation)
	}

	// --- Admin routes ---
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.JWTAuth(), authMiddleware.RoleRequired(models.UserTypeAdmin))
	{
		users := admin.Group("/users")
		{
			users.GET("", c.AdminUser.ListUsers)
			users.POST("", c.AdminUser.CreateUser)
			users.GET("/:id", c.AdminUser.GetUser)
			users.PUT("/:id", c.AdminUser.UpdateUser)
			users.DELETE("/:id", c.AdminUser.DeleteUser)
			users.POST("/:id/role", c.AdminUser.ChangeRole)
		}

		adminEvents := admin.Group("/events")
		{
			adminEvents.POST("", c.Event.CreateEvent)
			adminEvents.PUT("/:id", c.Event.UpdateEvent)
			adminEvents.DELETE("/:id", c.Event.DeleteEvent)
			adminEvents.POST("/:id/image", c.Event.UploadImage)
			adminEvents.POST("/:id/approve", c.Event.ApproveEvent)
			adminEvents.GET("/:id/qr", c.Event.QRCode)
			adminEvents.POST("/:id/qr/regenerate", c.Event.RegenerateSecret)
			adminEvents.GET("/:id/registrations", c.Registration.ListByEvent)
			adminEvents.GET("/:id/attendance", c.Attendance.EventAttendance)
			adminEvents.POST("/:id/attendance", c.Attendance.Mark)
			adminEvents.GET("/:id/certificates", c.Certificate.ListByEvent)
			adminEvents.POST("/:id/certificates", c.Certificate.Issue)
			adminEvents.POST("/:id/certificates/bulk", c.Certificate.IssueBulk)
			adminEvents.GET("/:id/feedback", c.Feedback.ListByEvent)
		}

		adminClubs := admin.Group("/clubs")
		{
			adminClubs.POST("", c.Club.CreateClub)
			adminClubs.PUT("/:id", c.Club.UpdateClub)
			adminClubs.DELETE("/:id", c.Club.DeleteClub)
			adminClubs.POST("/:id/logo", c.Club.UploadLogo)
			adminClubs.GET("/:id/members", c.Club.ListMembers)
		}
		admin.POST("/club-members/:id/approve", c.Club.ApproveMember)
		admin.POST("/club-members/:id/reject", c.Club.RejectMember)

		buses := admin.Group("/buses")
		{
			buses.POST("", c.Bus.CreateBus)
			buses.PUT("/:id", c.Bus.UpdateBus)
			buses.DELETE("/:id", c.Bus.DeleteBus)
			buses.GET("/:id/reservations", c.Bus.ListReservations)
		}

		admin.POST("/notifications", c.Notification.Broadcast)

		feedback := admin.Group("/feedback")
		{
			feedback.GET("", c.Feedback.List)
			feedback.DELETE("/:id", c.Feedback.Delete)
		}

		contacts := admin.Group("/contacts")
		{
			contacts.GET("", c.Contact.List)
			contacts.GET("/:id", c.Contact.Get)
			contacts.POST("/:id/respond", c.Contact.Respond)
			contacts.DELETE("/:id", c.Contact.Delete)
		}

		reports := admin.Group("/reports")
		{
			reports.GET("/dashboard", c.Report.Dashboard)
			reports.GET("/events", c.Report.EventsReport)
			reports.GET("/events/:id", c.Report.EventReport)
			reports.GET("/users", c.Report.UserReport)
		}
	}
}
