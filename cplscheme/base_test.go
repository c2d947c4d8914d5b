package cplscheme

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"

	"github.com/ArminHamedi/precice/mesh"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	return l
}

var _ = Describe("Builder", func() {
	var (
		mockCtrl *gomock.Controller
		comm     *MockCommunication
		builder  Builder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		comm = NewMockCommunication(mockCtrl)
		builder = MakeBuilder().
			WithParticipants("Fluid", "Solid").
			WithLocalParticipant("Fluid").
			WithCommunication(comm).
			WithTimestepLength(0.1).
			WithMaxTimesteps(3).
			WithLogger(quietLogger())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should build an explicit scheme", func() {
		s, err := builder.BuildExplicit("FluidSolid")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("FluidSolid"))
		Expect(s.DoesFirstStep()).To(BeTrue())
		Expect(s.CouplingPartners()).To(Equal([]string{"Solid"}))
		Expect(s.DtPolicy()).To(Equal(DtPolicyFixed))
		Expect(s.ValidDigits()).To(Equal(10))
	})

	It("should resolve the policy of the second participant", func() {
		s, err := builder.
			WithLocalParticipant("Solid").
			WithDtMethod(DtMethodFirstParticipant).
			BuildExplicit("FluidSolid")

		Expect(err).NotTo(HaveOccurred())
		Expect(s.DoesFirstStep()).To(BeFalse())
		Expect(s.CouplingPartners()).To(Equal([]string{"Fluid"}))
		Expect(s.DtPolicy()).To(Equal(DtPolicyFirstReceives))
	})

	It("should reject equal participant names", func() {
		_, err := builder.
			WithParticipants("Fluid", "Fluid").
			BuildExplicit("FluidFluid")

		Expect(IsKind(err, KindConfig)).To(BeTrue())
	})

	It("should reject an unknown local participant", func() {
		_, err := builder.
			WithLocalParticipant("Heat").
			BuildExplicit("FluidSolid")

		Expect(IsKind(err, KindConfig)).To(BeTrue())
		Expect(err.(*Error).Values).To(HaveKeyWithValue("local", "Heat"))
		Expect(err.Error()).To(ContainSubstring(`"Heat"`))
	})

	DescribeTable("should validate the iteration limit",
		func(n int, valid bool) {
			_, err := builder.
				WithMaxIterations(n).
				WithConvergenceMeasure(0, false,
					NewMockConvergenceMeasure(mockCtrl)).
				BuildImplicit("FluidSolid")

			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(IsKind(err, KindConfig)).To(BeTrue())
			}
		},
		Entry("unbounded", UndefinedMaxIterations, true),
		Entry("one", 1, true),
		Entry("zero", 0, false),
		Entry("negative", -4, false),
	)

	It("should reject invalid extrapolation orders", func() {
		_, err := builder.WithExtrapolationOrder(3).BuildExplicit("FluidSolid")

		Expect(IsKind(err, KindConfig)).To(BeTrue())
	})

	It("should require a convergence measure for implicit coupling", func() {
		_, err := builder.BuildImplicit("FluidSolid")

		Expect(IsKind(err, KindConfig)).To(BeTrue())
	})

	It("should refuse convergence measures for explicit coupling", func() {
		_, err := builder.
			WithConvergenceMeasure(0, false, NewMockConvergenceMeasure(mockCtrl)).
			BuildExplicit("FluidSolid")

		Expect(IsKind(err, KindConfig)).To(BeTrue())
	})

	It("should not share measures between builders", func() {
		m := NewMockConvergenceMeasure(mockCtrl)
		b1 := builder.WithConvergenceMeasure(0, false, m)
		b2 := b1.WithConvergenceMeasure(1, false, m)

		s1, err := b1.BuildImplicit("A")
		Expect(err).NotTo(HaveOccurred())
		s2, err := b2.BuildImplicit("B")
		Expect(err).NotTo(HaveOccurred())

		Expect(s1.ConvergenceMeasures()).To(HaveLen(1))
		Expect(s2.ConvergenceMeasures()).To(HaveLen(2))
	})

	It("should panic without a communication", func() {
		Expect(func() {
			_, _ = MakeBuilder().
				WithParticipants("Fluid", "Solid").
				WithLocalParticipant("Fluid").
				WithTimestepLength(0.1).
				BuildExplicit("FluidSolid")
		}).To(Panic())
	})
})

var _ = Describe("Base", func() {
	var (
		mockCtrl *gomock.Controller
		comm     *MockCommunication
		forces   *mesh.Data
		displ    *mesh.Data
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		comm = NewMockCommunication(mockCtrl)
		comm.EXPECT().IsConnected().Return(true).AnyTimes()
		forces = mesh.NewData(0, "Forces", "Surface", 2)
		displ = mesh.NewData(1, "Displacements", "Surface", 2)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	build := func(local string, b Builder) *SerialExplicit {
		s, err := b.
			WithParticipants("Fluid", "Solid").
			WithLocalParticipant(local).
			WithCommunication(comm).
			WithLogger(quietLogger()).
			BuildExplicit("FluidSolid")
		Expect(err).NotTo(HaveOccurred())

		return s
	}

	fixed := func() Builder {
		return MakeBuilder().WithTimestepLength(0.1).WithMaxTimesteps(3)
	}

	It("should not add data twice", func() {
		s := build("Fluid", fixed())

		Expect(s.AddDataToSend(forces, false)).To(Succeed())
		Expect(s.AddDataToReceive(forces, false)).To(Succeed())

		err := s.AddDataToSend(forces, true)
		Expect(IsKind(err, KindConfig)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("cannot be added twice"))
		Expect(err.Error()).To(ContainSubstring(`"Forces"`))
		Expect(err.Error()).To(ContainSubstring(`"Surface"`))

		err = s.AddDataToReceive(forces, true)
		Expect(err.Error()).To(ContainSubstring("cannot be added twice"))
		Expect(s.SendData(0).Initialize()).To(BeFalse())
	})

	Context("when initializing", func() {
		It("should fail without send data", func() {
			s := build("Fluid", fixed())

			err := s.Initialize(0, 0)

			Expect(IsKind(err, KindConfig)).To(BeTrue())
			Expect(err.(*Error).Op).To(Equal("initialize()"))
			Expect(s.IsInitialized()).To(BeFalse())
		})

		It("should name the data of a dangling convergence measure", func() {
			s, err := fixed().
				WithParticipants("Fluid", "Solid").
				WithLocalParticipant("Solid").
				WithCommunication(comm).
				WithConvergenceMeasure(42, false, &countingMeasure{n: 1}).
				WithLogger(quietLogger()).
				BuildImplicit("FluidSolid")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.AddDataToSend(displ, false)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())

			err = s.Initialize(0, 0)

			var e *Error
			Expect(errors.As(err, &e)).To(BeTrue())
			Expect(e.Kind).To(Equal(KindConfig))
			Expect(e.Op).To(Equal("setupConvergenceMeasures()"))
			Expect(e.Values).To(HaveKeyWithValue("dataID", 42))
			Expect(s.IsInitialized()).To(BeFalse())
		})

		It("should fail on negative start values", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())

			err := s.Initialize(-1, 0)
			Expect(IsKind(err, KindUsage)).To(BeTrue())

			err = s.Initialize(0, -1)
			Expect(IsKind(err, KindUsage)).To(BeTrue())
		})

		It("should fail when initialized twice", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())

			Expect(s.Initialize(0, 0)).To(Succeed())

			Expect(IsKind(s.Initialize(0, 0), KindUsage)).To(BeTrue())
		})

		It("should panic on a disconnected communication", func() {
			c := NewMockCommunication(mockCtrl)
			c.EXPECT().IsConnected().Return(false).AnyTimes()
			s, err := fixed().
				WithParticipants("Fluid", "Solid").
				WithLocalParticipant("Fluid").
				WithCommunication(c).
				WithLogger(quietLogger()).
				BuildExplicit("FluidSolid")
			Expect(err).NotTo(HaveOccurred())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())

			Expect(func() { _ = s.Initialize(0, 0) }).To(Panic())
		})

		It("should start at the given time", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())

			Expect(s.Initialize(0.5, 5)).To(Succeed())

			Expect(s.Time()).To(Equal(0.5))
			Expect(s.Timesteps()).To(Equal(5))
			Expect(s.HasDataBeenExchanged()).To(BeFalse())
		})

		It("should receive the first data on the second participant", func() {
			s := build("Solid", MakeBuilder().
				WithMaxTimesteps(3).
				WithDtMethod(DtMethodFirstParticipant))
			Expect(s.AddDataToSend(displ, false)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())

			gomock.InOrder(
				comm.EXPECT().StartReceivePackage().Return(nil),
				comm.EXPECT().ReceiveFloat64().Return(0.25, nil),
				comm.EXPECT().ReceiveFloat64s(gomock.Any()).
					DoAndReturn(func(dst []float64) error {
						copy(dst, []float64{1, 2})
						return nil
					}),
				comm.EXPECT().FinishReceivePackage().Return(nil),
			)

			Expect(s.Initialize(0, 0)).To(Succeed())

			Expect(s.TimestepLength()).To(Equal(0.25))
			Expect(forces.Values()).To(Equal([]float64{1, 2}))
			Expect(s.HasDataBeenExchanged()).To(BeTrue())
		})

		It("should skip empty buffers when receiving", func() {
			s := build("Solid", fixed())
			empty := mesh.NewData(2, "Temperature", "Volume", 0)
			Expect(s.AddDataToSend(displ, false)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())
			Expect(s.AddDataToReceive(empty, false)).To(Succeed())

			var received []int
			s.AcceptHook(HookFunc(func(ctx HookCtx) {
				if ctx.Pos == HookPosDataReceived {
					received = ctx.Item.([]int)
				}
			}))

			gomock.InOrder(
				comm.EXPECT().StartReceivePackage().Return(nil),
				comm.EXPECT().ReceiveFloat64s(gomock.Len(2)).Return(nil),
				comm.EXPECT().FinishReceivePackage().Return(nil),
			)

			Expect(s.Initialize(0, 0)).To(Succeed())
			Expect(received).To(Equal([]int{0, 2}))
		})

		It("should wrap transport errors", func() {
			s := build("Solid", fixed())
			Expect(s.AddDataToSend(displ, false)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())

			cause := errors.New("broken pipe")
			comm.EXPECT().StartReceivePackage().Return(cause)

			err := s.Initialize(0, 0)

			Expect(IsKind(err, KindTransport)).To(BeTrue())
			Expect(errors.Is(err, cause)).To(BeTrue())
		})

		It("should mark data to be received initially", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.AddDataToReceive(displ, true)).To(Succeed())

			Expect(s.Initialize(0, 0)).To(Succeed())

			Expect(s.HasToReceiveInitData()).To(BeTrue())
			Expect(s.HasToSendInitData()).To(BeFalse())
		})

		It("should not let the second participant receive initial data",
			func() {
				s := build("Solid", fixed())
				Expect(s.AddDataToSend(displ, false)).To(Succeed())
				Expect(s.AddDataToReceive(forces, true)).To(Succeed())

				err := s.Initialize(0, 0)

				Expect(IsKind(err, KindConfig)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring(
					"only first participant can receive initial data"))
				Expect(s.IsInitialized()).To(BeFalse())
			})

		It("should not let the first participant send initial data", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, true)).To(Succeed())

			err := s.Initialize(0, 0)

			Expect(IsKind(err, KindConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(
				"only second participant can initialize data"))
		})

		It("should defer the first receive if initial data is sent", func() {
			s := build("Solid", fixed())
			Expect(s.AddDataToSend(displ, true)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())

			Expect(s.Initialize(0, 0)).To(Succeed())

			Expect(s.HasToSendInitData()).To(BeTrue())
			Expect(s.IsActionRequired(ActionWriteInitialData)).To(BeTrue())
			Expect(s.HasDataBeenExchanged()).To(BeFalse())
		})
	})

	Context("when initializing data", func() {
		It("should fail before initialize", func() {
			s := build("Fluid", fixed())

			Expect(IsKind(s.InitializeData(), KindUsage)).To(BeTrue())
		})

		It("should do nothing without initial data", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())

			Expect(s.InitializeData()).To(Succeed())
			Expect(s.HasDataBeenExchanged()).To(BeFalse())
		})

		It("should require the initial data to be written", func() {
			s := build("Solid", fixed())
			Expect(s.AddDataToSend(displ, true)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())

			err := s.InitializeData()

			Expect(IsKind(err, KindProtocol)).To(BeTrue())
		})

		It("should send initial data and receive the first data", func() {
			s := build("Solid", fixed())
			Expect(s.AddDataToSend(displ, true)).To(Succeed())
			Expect(s.AddDataToReceive(forces, false)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())

			copy(displ.Values(), []float64{4, 5})
			s.PerformedAction(ActionWriteInitialData)

			gomock.InOrder(
				comm.EXPECT().StartSendPackage().Return(nil),
				comm.EXPECT().SendFloat64s([]float64{4, 5}).Return(nil),
				comm.EXPECT().FinishSendPackage().Return(nil),
				comm.EXPECT().StartReceivePackage().Return(nil),
				comm.EXPECT().ReceiveFloat64s(gomock.Any()).Return(nil),
				comm.EXPECT().FinishReceivePackage().Return(nil),
			)

			Expect(s.InitializeData()).To(Succeed())
			Expect(s.HasDataBeenExchanged()).To(BeTrue())
			Expect(s.HasToSendInitData()).To(BeFalse())
		})

		It("should receive initial data on the first participant", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.AddDataToReceive(displ, true)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())

			gomock.InOrder(
				comm.EXPECT().StartReceivePackage().Return(nil),
				comm.EXPECT().ReceiveFloat64s(gomock.Any()).Return(nil),
				comm.EXPECT().FinishReceivePackage().Return(nil),
			)

			Expect(s.InitializeData()).To(Succeed())
			Expect(s.HasToReceiveInitData()).To(BeFalse())
		})

		It("should not advance before the initial data is exchanged", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.AddDataToReceive(displ, true)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())
			Expect(s.AddComputedTime(0.1)).To(Succeed())

			Expect(IsKind(s.Advance(), KindUsage)).To(BeTrue())
		})
	})

	Context("when finalizing", func() {
		It("should fail before initialize", func() {
			s := build("Fluid", fixed())

			err := s.Finalize()

			Expect(IsKind(err, KindUsage)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("before initialize()"))
		})

		It("should fail while the coupling is ongoing", func() {
			s := build("Fluid", fixed())
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())

			err := s.Finalize()

			Expect(IsKind(err, KindUsage)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("isCouplingOngoing()"))
		})

		It("should fail with outstanding actions after the end", func() {
			s := build("Fluid", MakeBuilder().
				WithTimestepLength(0.1).
				WithMaxTimesteps(0))
			Expect(s.AddDataToSend(forces, false)).To(Succeed())
			Expect(s.Initialize(0, 0)).To(Succeed())
			Expect(s.IsCouplingOngoing()).To(BeFalse())

			s.RequireAction(ExtensionAction("plot-output"))

			err := s.Finalize()
			Expect(IsKind(err, KindProtocol)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("plot-output"))

			s.PerformedAction(ExtensionAction("plot-output"))
			Expect(s.Finalize()).To(Succeed())
		})
	})

	Context("with post-processing", func() {
		It("should initialize it on the second participant", func() {
			pp := NewMockPostProcessing(mockCtrl)
			s := build("Solid", fixed())
			s.SetPostProcessing(pp)
			Expect(s.AddDataToSend(displ, false)).To(Succeed())

			pp.EXPECT().DataIDs().Return([]int{1}).AnyTimes()
			pp.EXPECT().Initialize(s.AllSendData()).Return(nil)
			comm.EXPECT().StartReceivePackage().Return(nil)
			comm.EXPECT().FinishReceivePackage().Return(nil)

			Expect(s.Initialize(0, 0)).To(Succeed())
		})

		It("should govern exactly one data on the second participant",
			func() {
				pp := NewMockPostProcessing(mockCtrl)
				s := build("Solid", fixed())
				s.SetPostProcessing(pp)
				Expect(s.AddDataToSend(displ, false)).To(Succeed())

				pp.EXPECT().DataIDs().Return([]int{0, 1}).AnyTimes()

				Expect(IsKind(s.Initialize(0, 0), KindConfig)).To(BeTrue())
			})

		It("should refuse data of the first participant", func() {
			pp := NewMockPostProcessing(mockCtrl)
			s := build("Fluid", fixed())
			s.SetPostProcessing(pp)
			Expect(s.AddDataToSend(forces, false)).To(Succeed())

			pp.EXPECT().DataIDs().Return([]int{0}).AnyTimes()

			err := s.Initialize(0, 0)

			Expect(IsKind(err, KindConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("second participant only"))
		})
	})

	It("should require simulation checkpoints at the interval", func() {
		s := build("Fluid", fixed().WithCheckpointTimestepInterval(2))
		Expect(s.AddDataToSend(forces, false)).To(Succeed())
		Expect(s.AddDataToReceive(displ, false)).To(Succeed())
		Expect(s.Initialize(0, 0)).To(Succeed())

		comm.EXPECT().StartSendPackage().Return(nil).AnyTimes()
		comm.EXPECT().SendFloat64s(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().FinishSendPackage().Return(nil).AnyTimes()
		comm.EXPECT().StartReceivePackage().Return(nil).AnyTimes()
		comm.EXPECT().ReceiveFloat64s(gomock.Any()).Return(nil).AnyTimes()
		comm.EXPECT().FinishReceivePackage().Return(nil).AnyTimes()

		Expect(s.AddComputedTime(0.1)).To(Succeed())
		Expect(s.Advance()).To(Succeed())
		Expect(s.IsActionRequired(ActionWriteSimulationCheckpoint)).
			To(BeFalse())

		Expect(s.AddComputedTime(0.1)).To(Succeed())
		Expect(s.Advance()).To(Succeed())
		Expect(s.IsActionRequired(ActionWriteSimulationCheckpoint)).
			To(BeTrue())
		Expect(s.CheckpointTimestepInterval()).To(Equal(2))

		Expect(IsKind(s.SetCheckpointTimestepInterval(3), KindUsage)).
			To(BeTrue())
	})

	It("should print the basic state", func() {
		s := build("Fluid", MakeBuilder().
			WithTimestepLength(0.1).
			WithMaxTimesteps(10).
			WithMaxTime(1))
		Expect(s.AddDataToSend(forces, false)).To(Succeed())
		Expect(s.Initialize(0.3, 3)).To(Succeed())

		Expect(s.PrintBasicState()).To(Equal(
			"dt# 3 of 10 | t 0.3 of 1 | dt 0.1 | max dt 0.1 | " +
				"ongoing yes | dt complete no"))
	})

	It("should print the state without bounds", func() {
		s := build("Fluid", MakeBuilder().
			WithTimestepLength(0.1).
			WithMaxTimesteps(0))
		Expect(s.AddDataToSend(forces, false)).To(Succeed())
		Expect(s.Initialize(0, 0)).To(Succeed())

		Expect(s.PrintBasicState()).To(Equal(
			"dt# 0 of 0 | t 0 | dt 0.1 | max dt 0.1 | ongoing no | " +
				"dt complete no"))
	})

	It("should print the outstanding actions", func() {
		s := build("Fluid", fixed())
		s.RequireAction(ActionWriteInitialData)
		s.RequireAction(ActionReadIterationCheckpoint)

		Expect(s.PrintActionsState()).To(Equal(
			"read-iteration-checkpoint | write-initial-data | "))
	})
})
